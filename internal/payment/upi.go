package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// UPI produces scan-to-pay intents. The QR payload is a standard upi://pay
// deep link; rendering it as an image is the client's concern.
type UPI struct {
	VPA       string
	PayeeName string
}

// CreateIntent builds the UPI deep link for the snapshot amount.
func (p UPI) CreateIntent(_ context.Context, req IntentRequest) (IntentResponse, error) {
	vpa := strings.TrimSpace(p.VPA)
	if vpa == "" {
		return IntentResponse{}, errors.New("upi: payee vpa not configured")
	}
	payee := strings.TrimSpace(p.PayeeName)
	if payee == "" {
		payee = "Print Counter"
	}
	values := url.Values{}
	values.Set("pa", vpa)
	values.Set("pn", payee)
	values.Set("am", fmt.Sprintf("%d.00", req.Amount))
	values.Set("cu", "INR")
	if note := strings.TrimSpace(req.Note); note != "" {
		values.Set("tn", note)
	}
	return IntentResponse{
		Method:       MethodUPI,
		Amount:       req.Amount,
		QRPayload:    "upi://pay?" + values.Encode(),
		Instructions: "Scan QR code with any UPI app to pay",
	}, nil
}
