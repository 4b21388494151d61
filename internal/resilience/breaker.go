package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned while the breaker rejects calls
var ErrCircuitOpen = errors.New("circuit breaker open")

// Completer is the model call guarded by GuardedCompleter
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error)
}

// BreakerSettings configures the circuit breaker around the model service
type BreakerSettings struct {
	Name                string
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// GuardedCompleter retries model calls with backoff behind a circuit breaker.
// Once the breaker opens, calls fail fast so every stage falls back immediately.
type GuardedCompleter struct {
	next    Completer
	retrier *Retrier
	cb      *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewGuardedCompleter wraps next with retries and a circuit breaker
func NewGuardedCompleter(next Completer, retrier *Retrier, settings BreakerSettings, logger *zap.Logger) *GuardedCompleter {
	if settings.Name == "" {
		settings.Name = "llm"
	}
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = 5
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation says nothing about the service
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &GuardedCompleter{
		next:    next,
		retrier: retrier,
		cb:      cb,
		logger:  logger,
	}
}

// Complete implements the model client contract
func (g *GuardedCompleter) Complete(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	var text string
	err := g.retrier.Do(ctx, "llm_complete", func(ctx context.Context) error {
		out, err := g.cb.Execute(func() (interface{}, error) {
			return g.next.Complete(ctx, prompt, temperature, maxTokens)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Permanent(ErrCircuitOpen)
		}
		if err != nil {
			if ctx.Err() != nil {
				return Permanent(err)
			}
			return err
		}
		text = out.(string)
		return nil
	})
	return text, err
}

// State returns the breaker state name
func (g *GuardedCompleter) State() string {
	return g.cb.State().String()
}
