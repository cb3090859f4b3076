package health

import (
	"context"
	"errors"

	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrBreakerOpen is returned while the ranking oracle breaker is open.
var ErrBreakerOpen = errors.New("ranking oracle circuit breaker is open")

// BreakerStater exposes a circuit breaker state.
type BreakerStater interface {
	State() gobreaker.State
}

// BreakerChecker reports an open ranking breaker. Feeds still work while it
// is open, so callers usually register it as non-critical.
type BreakerChecker struct {
	breaker BreakerStater
}

// NewBreakerChecker creates a breaker health checker.
func NewBreakerChecker(breaker BreakerStater) *BreakerChecker {
	return &BreakerChecker{breaker: breaker}
}

// HealthCheck fails only when the breaker is open.
func (c *BreakerChecker) HealthCheck(ctx context.Context) error {
	if c.breaker == nil {
		return nil
	}
	if c.breaker.State() == gobreaker.StateOpen {
		return ErrBreakerOpen
	}
	return nil
}
