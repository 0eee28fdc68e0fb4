package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/markjakearzadon/confticket-gobackend/internal/models"
)

const (
	testHMACSecret = "test_hmac_secret"
	testSignature  = "479bc4d9d78a7a26958bacd7a8af529701b49bbff4f90bf5b8562d852184d7a6" +
		"c1b04b8eeaee125b24f8dd1d116f25f8044bf302e3c7a1a3d5b078eaeae18cea"
)

func sampleTransaction() models.PaymobTransaction {
	return models.PaymobTransaction{
		ID:                   192036465,
		AmountCents:          15000,
		CreatedAt:            "2025-12-01T10:15:30.123456",
		Currency:             "EGP",
		ErrorOccured:         false,
		HasParentTransaction: false,
		IntegrationID:        4412345,
		Is3DSecure:           true,
		IsAuth:               false,
		IsCapture:            false,
		IsRefunded:           false,
		IsStandalonePayment:  true,
		IsVoided:             false,
		Order:                models.PaymobOrder{ID: 217503754, MerchantOrderID: "BK1"},
		Owner:                302852,
		Pending:              false,
		SourceData:           models.PaymobSourceData{Pan: "2346", SubType: "MasterCard", Type: "card"},
		Success:              true,
	}
}

// signedCallback returns a TRANSACTION callback for txn with a valid hmac.
func signedCallback(txn models.PaymobTransaction) *models.PaymobCallback {
	return &models.PaymobCallback{
		Type: models.CallbackTypeTransaction,
		HMAC: NewWebhookVerifier(testHMACSecret).Sign(&txn),
		Obj:  txn,
	}
}

func TestSigningString(t *testing.T) {
	txn := sampleTransaction()
	require.Equal(t,
		"150002025-12-01T10:15:30.123456EGPfalsefalse1920364654412345truefalsefalsefalsetruefalse217503754302852false2346MasterCardcardtrue",
		signingString(&txn),
	)
}

func TestSign_FixedVector(t *testing.T) {
	txn := sampleTransaction()
	require.Equal(t, testSignature, NewWebhookVerifier(testHMACSecret).Sign(&txn))
}

func TestSign_SingleFieldSensitivity(t *testing.T) {
	var tests = []struct {
		name   string
		mutate func(*models.PaymobTransaction)
	}{
		{"amount_cents", func(tx *models.PaymobTransaction) { tx.AmountCents = 15001 }},
		{"created_at", func(tx *models.PaymobTransaction) { tx.CreatedAt = "2025-12-01T10:15:31.123456" }},
		{"currency", func(tx *models.PaymobTransaction) { tx.Currency = "USD" }},
		{"error_occured", func(tx *models.PaymobTransaction) { tx.ErrorOccured = true }},
		{"has_parent_transaction", func(tx *models.PaymobTransaction) { tx.HasParentTransaction = true }},
		{"id", func(tx *models.PaymobTransaction) { tx.ID = 192036466 }},
		{"integration_id", func(tx *models.PaymobTransaction) { tx.IntegrationID = 4412346 }},
		{"is_3d_secure", func(tx *models.PaymobTransaction) { tx.Is3DSecure = false }},
		{"is_auth", func(tx *models.PaymobTransaction) { tx.IsAuth = true }},
		{"is_capture", func(tx *models.PaymobTransaction) { tx.IsCapture = true }},
		{"is_refunded", func(tx *models.PaymobTransaction) { tx.IsRefunded = true }},
		{"is_standalone_payment", func(tx *models.PaymobTransaction) { tx.IsStandalonePayment = false }},
		{"is_voided", func(tx *models.PaymobTransaction) { tx.IsVoided = true }},
		{"order.id", func(tx *models.PaymobTransaction) { tx.Order.ID = 217503755 }},
		{"owner", func(tx *models.PaymobTransaction) { tx.Owner = 302853 }},
		{"pending", func(tx *models.PaymobTransaction) { tx.Pending = true }},
		{"source_data.pan", func(tx *models.PaymobTransaction) { tx.SourceData.Pan = "2347" }},
		{"source_data.sub_type", func(tx *models.PaymobTransaction) { tx.SourceData.SubType = "Visa" }},
		{"source_data.type", func(tx *models.PaymobTransaction) { tx.SourceData.Type = "wallet" }},
		{"success", func(tx *models.PaymobTransaction) { tx.Success = false }},
	}

	v := NewWebhookVerifier(testHMACSecret)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := sampleTransaction()
			tt.mutate(&txn)
			require.NotEqual(t, testSignature, v.Sign(&txn))
		})
	}
}

func TestSign_MerchantOrderIDNotSigned(t *testing.T) {
	txn := sampleTransaction()
	txn.Order.MerchantOrderID = "other"
	require.Equal(t, testSignature, NewWebhookVerifier(testHMACSecret).Sign(&txn))
}

func TestVerify(t *testing.T) {
	t.Run("valid success", func(t *testing.T) {
		v := NewWebhookVerifier(testHMACSecret)
		got, err := v.Verify(signedCallback(sampleTransaction()), "")
		require.NoError(t, err)
		require.Equal(t, &VerifiedTransaction{
			Success:         true,
			MerchantOrderID: "BK1",
			TransactionID:   "192036465",
			Amount:          150,
		}, got)
	})

	t.Run("valid failure", func(t *testing.T) {
		txn := sampleTransaction()
		txn.Success = false
		got, err := NewWebhookVerifier(testHMACSecret).Verify(signedCallback(txn), "")
		require.NoError(t, err)
		require.False(t, got.Success)
	})

	t.Run("uppercase signature", func(t *testing.T) {
		cb := &models.PaymobCallback{
			Type: models.CallbackTypeTransaction,
			HMAC: strings.ToUpper(testSignature),
			Obj:  sampleTransaction(),
		}
		_, err := NewWebhookVerifier(testHMACSecret).Verify(cb, "")
		require.NoError(t, err)
	})

	t.Run("altered hmac", func(t *testing.T) {
		cb := signedCallback(sampleTransaction())
		cb.HMAC = "0" + cb.HMAC[1:]
		got, err := NewWebhookVerifier(testHMACSecret).Verify(cb, "")
		require.ErrorIs(t, err, ErrInvalidSignature)
		require.Nil(t, got)
	})

	t.Run("altered payload", func(t *testing.T) {
		cb := signedCallback(sampleTransaction())
		cb.Obj.AmountCents = 1
		_, err := NewWebhookVerifier(testHMACSecret).Verify(cb, "")
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("missing hmac", func(t *testing.T) {
		cb := signedCallback(sampleTransaction())
		cb.HMAC = ""
		_, err := NewWebhookVerifier(testHMACSecret).Verify(cb, "")
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("query signature", func(t *testing.T) {
		cb := signedCallback(sampleTransaction())
		cb.HMAC = ""
		_, err := NewWebhookVerifier(testHMACSecret).Verify(cb, testSignature)
		require.NoError(t, err)
	})

	t.Run("query signature wins", func(t *testing.T) {
		cb := signedCallback(sampleTransaction())
		_, err := NewWebhookVerifier(testHMACSecret).Verify(cb, "deadbeef")
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewWebhookVerifier("other").Verify(signedCallback(sampleTransaction()), "")
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("no secret configured", func(t *testing.T) {
		_, err := NewWebhookVerifier("").Verify(signedCallback(sampleTransaction()), "")
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("non transaction ignored", func(t *testing.T) {
		cb := &models.PaymobCallback{Type: "TOKEN", HMAC: "garbage"}
		got, err := NewWebhookVerifier(testHMACSecret).Verify(cb, "")
		require.NoError(t, err)
		require.Nil(t, got)
	})
}
