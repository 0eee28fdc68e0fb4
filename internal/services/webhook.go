package services

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"

	"github.com/markjakearzadon/confticket-gobackend/internal/models"
)

var ErrInvalidSignature = errors.New("invalid signature")

type VerifiedTransaction struct {
	Success         bool
	MerchantOrderID string
	TransactionID   string
	Amount          float64
}

// WebhookVerifier authenticates Paymob transaction callbacks with the
// account's HMAC secret.
type WebhookVerifier struct {
	secret []byte
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

// Verify checks a callback's signature and extracts the payment outcome.
// Callbacks that are not transactions return nil, nil and need no action.
// signature overrides the envelope hmac when the gateway sent it out of band.
func (v *WebhookVerifier) Verify(callback *models.PaymobCallback, signature string) (*VerifiedTransaction, error) {
	if callback.Type != models.CallbackTypeTransaction {
		return nil, nil
	}
	if signature == "" {
		signature = callback.HMAC
	}
	if len(v.secret) == 0 || signature == "" {
		return nil, ErrInvalidSignature
	}

	expected := v.Sign(&callback.Obj)
	given := strings.ToLower(strings.TrimSpace(signature))
	if !hmac.Equal([]byte(expected), []byte(given)) {
		return nil, ErrInvalidSignature
	}

	return &VerifiedTransaction{
		Success:         callback.Obj.Success,
		MerchantOrderID: callback.Obj.Order.MerchantOrderID,
		TransactionID:   strconv.FormatInt(callback.Obj.ID, 10),
		Amount:          FromMinorUnits(callback.Obj.AmountCents),
	}, nil
}

// Sign returns the hex HMAC-SHA512 of the transaction fields in the order
// Paymob concatenates them.
func (v *WebhookVerifier) Sign(txn *models.PaymobTransaction) string {
	mac := hmac.New(sha512.New, v.secret)
	mac.Write([]byte(signingString(txn)))
	return hex.EncodeToString(mac.Sum(nil))
}

func signingString(txn *models.PaymobTransaction) string {
	fields := []string{
		strconv.FormatInt(txn.AmountCents, 10),
		txn.CreatedAt,
		txn.Currency,
		strconv.FormatBool(txn.ErrorOccured),
		strconv.FormatBool(txn.HasParentTransaction),
		strconv.FormatInt(txn.ID, 10),
		strconv.FormatInt(txn.IntegrationID, 10),
		strconv.FormatBool(txn.Is3DSecure),
		strconv.FormatBool(txn.IsAuth),
		strconv.FormatBool(txn.IsCapture),
		strconv.FormatBool(txn.IsRefunded),
		strconv.FormatBool(txn.IsStandalonePayment),
		strconv.FormatBool(txn.IsVoided),
		strconv.FormatInt(txn.Order.ID, 10),
		strconv.FormatInt(txn.Owner, 10),
		strconv.FormatBool(txn.Pending),
		txn.SourceData.Pan,
		txn.SourceData.SubType,
		txn.SourceData.Type,
		strconv.FormatBool(txn.Success),
	}
	return strings.Join(fields, "")
}
