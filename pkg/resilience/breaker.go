package resilience

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/pkg/config"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrorClassifier reports whether err should count against the breaker.
type ErrorClassifier func(err error) bool

// Breaker guards calls to a remote dependency with a circuit breaker and a
// per-call timeout.
type Breaker struct {
	cb      *gobreaker.CircuitBreaker[any]
	timeout time.Duration
}

func NewBreaker(name string, cfg config.BreakerConfig, classify ErrorClassifier, logger *zap.Logger) *Breaker {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "unknown"
	}
	if classify == nil {
		classify = RecordAll
	}
	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 1
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenMax,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classify(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state change",
				zap.String("operation", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Breaker{
		cb:      gobreaker.NewCircuitBreaker[any](settings),
		timeout: cfg.Timeout,
	}
}

// Execute runs fn through the breaker. A positive timeout bounds each call.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("resilience: operation callback is nil")
	}
	_, err := b.cb.Execute(func() (any, error) {
		callCtx := ctx
		if b.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, b.timeout)
			defer cancel()
		}
		return nil, fn(callCtx)
	})
	return err
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// RecordAll counts every error except caller cancellation as a failure.
func RecordAll(err error) bool {
	return !errors.Is(err, context.Canceled)
}
