package payment

import (
	"context"

	"github.com/printdesk/backend-print/internal/pricing"
)

// Method tags for the two mocked payment flows.
const (
	MethodUPI  = "upi"
	MethodCash = "cash"
)

// IntentRequest captures the information required to open a payment intent.
type IntentRequest struct {
	HandleID string
	Amount   pricing.Money
	Note     string
}

// IntentResponse represents what the user needs to complete the payment:
// a QR payload for UPI, or a counter token for cash.
type IntentResponse struct {
	Method       string        `json:"method"`
	Amount       pricing.Money `json:"amount"`
	QRPayload    string        `json:"qrPayload,omitempty"`
	Token        string        `json:"token,omitempty"`
	Instructions string        `json:"instructions"`
}

// Provider abstracts the mocked payment capability. Providers only produce
// intents; resolution arrives later through an explicit confirm or cancel
// call, never through an internal timer.
type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (IntentResponse, error)
}
