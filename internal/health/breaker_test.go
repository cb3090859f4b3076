package health

import (
	"context"
	"errors"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"
)

type fixedState gobreaker.State

func (s fixedState) State() gobreaker.State { return gobreaker.State(s) }

func TestBreakerChecker(t *testing.T) {
	tests := []struct {
		name    string
		state   gobreaker.State
		wantErr bool
	}{
		{"closed", gobreaker.StateClosed, false},
		{"half-open", gobreaker.StateHalfOpen, false},
		{"open", gobreaker.StateOpen, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewBreakerChecker(fixedState(tt.state)).HealthCheck(context.Background())
			if tt.wantErr != (err != nil) {
				t.Fatalf("HealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrBreakerOpen) {
				t.Errorf("expected ErrBreakerOpen, got %v", err)
			}
		})
	}
}

func TestBreakerChecker_NilBreaker(t *testing.T) {
	if err := NewBreakerChecker(nil).HealthCheck(context.Background()); err != nil {
		t.Errorf("expected nil error without a breaker, got %v", err)
	}
}
