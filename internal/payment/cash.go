package payment

import (
	"context"
	"crypto/rand"
	"fmt"
)

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const tokenLength = 6

// Cash issues counter tokens: the user pays at the counter and quotes the
// token to collect prints.
type Cash struct{}

// CreateIntent generates a fresh counter token for the snapshot amount.
func (Cash) CreateIntent(_ context.Context, req IntentRequest) (IntentResponse, error) {
	token, err := newToken()
	if err != nil {
		return IntentResponse{}, fmt.Errorf("cash: generate token: %w", err)
	}
	return IntentResponse{
		Method:       MethodCash,
		Amount:       req.Amount,
		Token:        token,
		Instructions: "Show this token at the counter to complete your payment and collect prints",
	}, nil
}

func newToken() (string, error) {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf), nil
}
