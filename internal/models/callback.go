package models

import (
	"time"
)

const CallbackTypeTransaction = "TRANSACTION"

// PaymobCallback is the envelope Paymob posts to the processed-callback URL.
type PaymobCallback struct {
	Type string            `json:"type"`
	HMAC string            `json:"hmac"`
	Obj  PaymobTransaction `json:"obj"`
}

type PaymobTransaction struct {
	ID                   int64            `json:"id"`
	AmountCents          int64            `json:"amount_cents"`
	CreatedAt            string           `json:"created_at"`
	Currency             string           `json:"currency"`
	ErrorOccured         bool             `json:"error_occured"`
	HasParentTransaction bool             `json:"has_parent_transaction"`
	IntegrationID        int64            `json:"integration_id"`
	Is3DSecure           bool             `json:"is_3d_secure"`
	IsAuth               bool             `json:"is_auth"`
	IsCapture            bool             `json:"is_capture"`
	IsRefunded           bool             `json:"is_refunded"`
	IsStandalonePayment  bool             `json:"is_standalone_payment"`
	IsVoided             bool             `json:"is_voided"`
	Order                PaymobOrder      `json:"order"`
	Owner                int64            `json:"owner"`
	Pending              bool             `json:"pending"`
	SourceData           PaymobSourceData `json:"source_data"`
	Success              bool             `json:"success"`
}

type PaymobOrder struct {
	ID              int64  `json:"id"`
	MerchantOrderID string `json:"merchant_order_id"`
}

type PaymobSourceData struct {
	Pan     string `json:"pan"`
	SubType string `json:"sub_type"`
	Type    string `json:"type"`
}

// PaymentCallback is the diagnostic record kept for every webhook delivery.
type PaymentCallback struct {
	ID              string    `bson:"_id" json:"id"`
	Type            string    `bson:"type" json:"type"`
	TransactionID   string    `bson:"transaction_id" json:"transaction_id"`
	MerchantOrderID string    `bson:"merchant_order_id" json:"merchant_order_id"`
	Success         bool      `bson:"success" json:"success"`
	SignatureValid  bool      `bson:"signature_valid" json:"signature_valid"`
	Outcome         string    `bson:"outcome" json:"outcome"`
	ReceivedAt      time.Time `bson:"received_at" json:"received_at"`
}
