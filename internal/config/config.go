package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPaymobBaseURL       = "https://accept.paymob.com/api"
	DefaultPaymobIframeBaseURL = "https://accept.paymob.com/api/acceptance/iframes"
)

type Config struct {
	Port            string
	MongoURI        string
	MongoDatabase   string
	AdminToken      string
	TelegramToken   string
	TelegramTimeout time.Duration
	KafkaBroker     string
	KafkaTopic      string
	AutoSendTickets bool
	LogLevel        string
	Paymob          PaymobConfig
}

type PaymobConfig struct {
	APIKey              string
	HMACSecret          string
	IframeID            string
	CardIntegrationID   int64
	WalletIntegrationID int64
	Currency            string
	BaseURL             string
	IframeBaseURL       string
	Timeout             time.Duration
}

// Configured reports whether a payment session can be opened.
func (c PaymobConfig) Configured() bool {
	return c.APIKey != "" && c.IframeID != "" && c.CardIntegrationID != 0
}

// Load reads the process environment once and validates it. Every problem is
// reported, not just the first.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	var errs []error

	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}
	required := func(key string) string {
		v := get(key, "")
		if v == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
		return v
	}
	integer := func(key string) int64 {
		v := get(key, "")
		if v == "" {
			return 0
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Errorf("%s must be a positive integer, got %q", key, v))
			return 0
		}
		return n
	}

	cfg := &Config{
		Port:          get("PORT", "8080"),
		MongoURI:      required("MONGO_URI"),
		MongoDatabase: get("MONGO_DATABASE", "ticketsdb"),
		AdminToken:    required("ADMIN_TOKEN"),
		TelegramToken: get("TELEGRAM_TOKEN", ""),
		KafkaBroker:   get("KAFKA_BROKER", ""),
		KafkaTopic:    get("KAFKA_TOPIC", "booking-events"),
		LogLevel:      get("LOG_LEVEL", "info"),
		Paymob: PaymobConfig{
			APIKey:              get("PAYMOB_API_KEY", ""),
			HMACSecret:          get("PAYMOB_HMAC_SECRET", ""),
			IframeID:            get("PAYMOB_IFRAME_ID", ""),
			CardIntegrationID:   integer("PAYMOB_CARD_INTEGRATION_ID"),
			WalletIntegrationID: integer("PAYMOB_WALLET_INTEGRATION_ID"),
			Currency:            get("PAYMOB_CURRENCY", "EGP"),
			BaseURL:             get("PAYMOB_BASE_URL", DefaultPaymobBaseURL),
			IframeBaseURL:       get("PAYMOB_IFRAME_BASE_URL", DefaultPaymobIframeBaseURL),
		},
	}

	autoSend, err := strconv.ParseBool(get("AUTO_SEND_TICKETS", "true"))
	if err != nil {
		errs = append(errs, fmt.Errorf("AUTO_SEND_TICKETS must be a boolean, got %q", getenv("AUTO_SEND_TICKETS")))
	}
	cfg.AutoSendTickets = autoSend

	timeout, err := time.ParseDuration(get("PAYMOB_TIMEOUT", "15s"))
	if err != nil || timeout <= 0 {
		errs = append(errs, fmt.Errorf("PAYMOB_TIMEOUT must be a positive duration, got %q", getenv("PAYMOB_TIMEOUT")))
	}
	cfg.Paymob.Timeout = timeout

	tgTimeout, err := time.ParseDuration(get("TELEGRAM_TIMEOUT", "15s"))
	if err != nil || tgTimeout <= 0 {
		errs = append(errs, fmt.Errorf("TELEGRAM_TIMEOUT must be a positive duration, got %q", getenv("TELEGRAM_TIMEOUT")))
	}
	cfg.TelegramTimeout = tgTimeout

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		errs = append(errs, fmt.Errorf("PORT must be numeric, got %q", cfg.Port))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}
