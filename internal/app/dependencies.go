package app

import (
	"context"

	validator "github.com/go-playground/validator/v10"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Dependencies enumerates core services shared across modules to make wiring explicit.
type Dependencies struct {
	Context      context.Context
	Validator    *validator.Validate
	LimiterStore limiter.Store
}

// NewDependencies builds the shared service set used by the composition root.
func NewDependencies(ctx context.Context) Dependencies {
	if ctx == nil {
		ctx = context.Background()
	}
	return Dependencies{
		Context:      ctx,
		Validator:    validator.New(),
		LimiterStore: NewLimiterStore(),
	}
}

// NewLimiterStore wires a rate limiter store kept in process memory.
func NewLimiterStore() limiter.Store {
	return memory.NewStore()
}
