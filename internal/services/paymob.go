package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/markjakearzadon/confticket-gobackend/internal/config"
)

var (
	ErrGatewayNotConfigured = errors.New("payment gateway not configured")
	ErrGateway              = errors.New("payment gateway error")
)

type PaymentMethod string

const (
	MethodCard   PaymentMethod = "CARD"
	MethodWallet PaymentMethod = "WALLET"
)

// paymentKeyExpiration is the payment key lifetime in seconds.
const paymentKeyExpiration = 3600

type PaymentSessionRequest struct {
	BookingID  string
	Amount     float64
	PayerName  string
	PayerPhone string
	Method     PaymentMethod
}

type PaymentSession struct {
	OrderID      string
	PaymentToken string
	URL          string
}

// PaymobClient opens hosted payment sessions on Paymob Accept. Each session
// takes three dependent calls: authenticate, register the order, request a
// payment key.
type PaymobClient struct {
	cfg    config.PaymobConfig
	client *http.Client
	log    *zap.Logger
}

func NewPaymobClient(cfg config.PaymobConfig, client *http.Client, log *zap.Logger) *PaymobClient {
	if client == nil {
		client = &http.Client{}
	}
	return &PaymobClient{cfg: cfg, client: client, log: log}
}

func (c *PaymobClient) Configured() bool {
	return c.cfg.Configured()
}

type billingData struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phone_number"`
	Apartment      string `json:"apartment"`
	Floor          string `json:"floor"`
	Street         string `json:"street"`
	Building       string `json:"building"`
	ShippingMethod string `json:"shipping_method"`
	PostalCode     string `json:"postal_code"`
	City           string `json:"city"`
	Country        string `json:"country"`
	State          string `json:"state"`
}

func (c *PaymobClient) CreatePaymentSession(ctx context.Context, req PaymentSessionRequest) (*PaymentSession, error) {
	if !c.cfg.Configured() {
		return nil, ErrGatewayNotConfigured
	}

	amountCents := ToMinorUnits(req.Amount)

	var auth struct {
		Token string `json:"token"`
	}
	if err := c.post(ctx, "authenticate", "/auth/tokens", map[string]any{
		"api_key": c.cfg.APIKey,
	}, &auth); err != nil {
		return nil, err
	}
	if auth.Token == "" {
		return nil, c.fail("authenticate", "empty token")
	}

	var order struct {
		ID int64 `json:"id"`
	}
	if err := c.post(ctx, "register order", "/ecommerce/orders", map[string]any{
		"auth_token":        auth.Token,
		"delivery_needed":   false,
		"amount_cents":      amountCents,
		"currency":          c.cfg.Currency,
		"merchant_order_id": req.BookingID,
		"items":             []any{},
	}, &order); err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, c.fail("register order", "empty order id")
	}

	firstName, lastName := splitName(req.PayerName)
	var key struct {
		Token string `json:"token"`
	}
	if err := c.post(ctx, "payment key", "/acceptance/payment_keys", map[string]any{
		"auth_token":   auth.Token,
		"amount_cents": amountCents,
		"expiration":   paymentKeyExpiration,
		"order_id":     order.ID,
		"billing_data": billingData{
			FirstName:      firstName,
			LastName:       lastName,
			Email:          "NA",
			PhoneNumber:    req.PayerPhone,
			Apartment:      "NA",
			Floor:          "NA",
			Street:         "NA",
			Building:       "NA",
			ShippingMethod: "NA",
			PostalCode:     "NA",
			City:           "NA",
			Country:        "NA",
			State:          "NA",
		},
		"currency":             c.cfg.Currency,
		"integration_id":       c.integrationID(req.Method),
		"lock_order_when_paid": true,
	}, &key); err != nil {
		return nil, err
	}
	if key.Token == "" {
		return nil, c.fail("payment key", "empty payment token")
	}

	orderID := strconv.FormatInt(order.ID, 10)
	c.log.Info("Paymob payment session created",
		zap.String("booking_id", req.BookingID),
		zap.String("order_id", orderID),
		zap.Int64("amount_cents", amountCents),
		zap.String("method", string(req.Method)),
	)

	return &PaymentSession{
		OrderID:      orderID,
		PaymentToken: key.Token,
		URL:          c.iframeURL(key.Token),
	}, nil
}

func (c *PaymobClient) integrationID(method PaymentMethod) int64 {
	if method == MethodWallet && c.cfg.WalletIntegrationID != 0 {
		return c.cfg.WalletIntegrationID
	}
	return c.cfg.CardIntegrationID
}

func (c *PaymobClient) iframeURL(token string) string {
	return strings.TrimRight(c.cfg.IframeBaseURL, "/") + "/" + url.PathEscape(c.cfg.IframeID) +
		"?payment_token=" + url.QueryEscape(token)
}

func (c *PaymobClient) post(ctx context.Context, step, path string, body any, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %s: marshal request: %v", ErrGateway, step, err)
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+path, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("%w: %s: build request: %v", ErrGateway, step, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error("Paymob request failed", zap.String("step", step), zap.Error(err))
		return fmt.Errorf("%w: %s: %v", ErrGateway, step, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Error("Paymob request rejected",
			zap.String("step", step),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("request", maskSensitiveFields(reqBody)),
			zap.ByteString("response", respBody),
		)
		return fmt.Errorf("%w: %s: status %d", ErrGateway, step, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.Error("Failed to decode Paymob response", zap.String("step", step), zap.Error(err))
		return fmt.Errorf("%w: %s: decode response: %v", ErrGateway, step, err)
	}
	return nil
}

func (c *PaymobClient) fail(step, reason string) error {
	c.log.Error("Paymob response incomplete", zap.String("step", step), zap.String("reason", reason))
	return fmt.Errorf("%w: %s: %s", ErrGateway, step, reason)
}

// ToMinorUnits converts an amount in currency units to integer cents,
// rounding half away from zero.
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func FromMinorUnits(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "NA", "NA"
	case 1:
		return parts[0], "NA"
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// maskSensitiveFields hides credentials and the payer phone before a request
// body is logged.
func maskSensitiveFields(body []byte) []byte {
	var req map[string]any
	if err := json.Unmarshal(body, &req); err != nil {
		return body
	}
	for _, k := range []string{"api_key", "auth_token"} {
		if _, ok := req[k]; ok {
			req[k] = "****"
		}
	}
	if billing, ok := req["billing_data"].(map[string]any); ok {
		if phone, ok := billing["phone_number"].(string); ok {
			billing["phone_number"] = maskPhone(phone)
		}
	}
	masked, _ := json.Marshal(req)
	return masked
}
