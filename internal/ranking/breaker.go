package ranking

import (
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes the circuit breaker in front of the oracle.
type BreakerConfig struct {
	// MaxRequests is the number of trial calls allowed while half-open. Default: 1.
	MaxRequests uint32

	// Interval resets the failure counts while closed. Default: 1 minute.
	Interval time.Duration

	// Timeout is how long the breaker stays open. Default: 30 seconds.
	Timeout time.Duration

	// ConsecutiveFailures opens the breaker. Default: 5.
	ConsecutiveFailures uint32
}

// DefaultBreakerConfig returns the default breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// Breaker short-circuits oracle calls after repeated failures so a dead
// oracle does not add its timeout to every feed request.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[string]
}

// NewBreaker creates a breaker. Zero fields in cfg take their defaults.
func NewBreaker(cfg BreakerConfig, metrics *Metrics, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultBreakerConfig()
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = defaults.MaxRequests
	}
	if cfg.Interval == 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = defaults.ConsecutiveFailures
	}

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "ranking-oracle",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("ranking circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.observeTransition(from.String(), to.String(), stateValue(to))
		},
	})

	return &Breaker{cb: cb}
}

// Execute runs fn unless the breaker is open.
func (b *Breaker) Execute(fn func() (string, error)) (string, error) {
	return b.cb.Execute(fn)
}

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// IsRejection reports whether err came from an open or saturated breaker
// rather than from the oracle itself.
func IsRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
