package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/printdesk/backend-print/internal/checkout"
	"github.com/printdesk/backend-print/internal/obs"
)

// ErrUnknownMethod indicates the requested payment method is not configured.
var ErrUnknownMethod = errors.New("unknown payment method")

// ErrHandleNotPayable indicates the checkout handle is not open for payment.
var ErrHandleNotPayable = errors.New("checkout handle not payable")

// Service coordinates payment intents for checkout handles. The intent
// amount always comes from the handle's snapshot; it is never recomputed
// from the live registry.
type Service struct {
	Providers map[string]Provider
}

// CreateIntent opens a payment intent for the given checkout handle.
func (s *Service) CreateIntent(ctx context.Context, bridge *checkout.Bridge, handleID uuid.UUID, method string) (IntentResponse, error) {
	var zero IntentResponse
	if s == nil || len(s.Providers) == 0 {
		return zero, errors.New("payment service not configured")
	}
	if bridge == nil {
		return zero, errors.New("checkout bridge not configured")
	}
	ctx, span := otel.Tracer("payment.Service").Start(ctx, "PaymentService.CreateIntent")
	defer span.End()

	start := time.Now()
	methodLabel := normaliseLabel(method)
	result := "error"
	defer func() {
		span.SetAttributes(
			attribute.String("payment.method", methodLabel),
			attribute.Float64("payment.intent.duration_ms", obs.DurationMillis(time.Since(start))),
			attribute.String("payment.intent.result", result),
		)
		if obs.PaymentIntentTotal != nil {
			obs.PaymentIntentTotal.WithLabelValues(methodLabel, result).Inc()
		}
	}()

	provider, ok := s.Providers[methodLabel]
	if !ok {
		return zero, fmt.Errorf("method %q: %w", method, ErrUnknownMethod)
	}
	handle, err := bridge.Get(handleID)
	if err != nil {
		return zero, err
	}
	if handle.State != checkout.StateSnapshotTaken {
		return zero, fmt.Errorf("handle %s in state %s: %w", handleID, handle.State, ErrHandleNotPayable)
	}
	span.SetAttributes(attribute.String("checkout.handle_id", handleID.String()))
	resp, err := provider.CreateIntent(ctx, IntentRequest{
		HandleID: handleID.String(),
		Amount:   handle.Snapshot.TotalAmount,
		Note:     fmt.Sprintf("print order %s", shortID(handleID)),
	})
	if err != nil {
		span.RecordError(err)
		return zero, err
	}
	result = "ok"
	return resp, nil
}

// Confirm reports successful payment back through the bridge.
func (s *Service) Confirm(ctx context.Context, bridge *checkout.Bridge, handleID uuid.UUID, method string) (checkout.Handle, error) {
	return s.resolve(ctx, bridge, handleID, checkout.OutcomeConfirmed, method)
}

// Cancel reports a cancelled payment back through the bridge; the user keeps
// editing the order.
func (s *Service) Cancel(ctx context.Context, bridge *checkout.Bridge, handleID uuid.UUID, method string) (checkout.Handle, error) {
	return s.resolve(ctx, bridge, handleID, checkout.OutcomeCancelled, method)
}

func (s *Service) resolve(ctx context.Context, bridge *checkout.Bridge, handleID uuid.UUID, outcome checkout.Outcome, method string) (checkout.Handle, error) {
	if s == nil {
		return checkout.Handle{}, errors.New("payment service not configured")
	}
	if bridge == nil {
		return checkout.Handle{}, errors.New("checkout bridge not configured")
	}
	methodLabel := normaliseLabel(method)
	if _, ok := s.Providers[methodLabel]; !ok {
		return checkout.Handle{}, fmt.Errorf("method %q: %w", method, ErrUnknownMethod)
	}
	handle, err := bridge.Resolve(ctx, handleID, outcome, methodLabel)
	if obs.PaymentResolvedTotal != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		obs.PaymentResolvedTotal.WithLabelValues(methodLabel, string(outcome), result).Inc()
	}
	return handle, err
}

func normaliseLabel(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return MethodUPI
	}
	return v
}

func shortID(id uuid.UUID) string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
