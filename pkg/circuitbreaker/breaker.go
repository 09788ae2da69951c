// Package circuitbreaker wraps sony/gobreaker for outbound calls to collaborators
// (payment gateway, fulfillment sink).
package circuitbreaker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

var ErrOpen = errors.New("circuit breaker is open")

type Options struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// IsSuccessful classifies errors that should not count as failures
	// (for example a declined request that proves the remote side is healthy).
	IsSuccessful func(err error) bool
	Logger       *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
	}
}

type Breaker struct {
	cb *gobreaker.CircuitBreaker[any]
}

func New(name string, opts Options) *Breaker {
	if opts.ConsecutiveFailures == 0 {
		opts.ConsecutiveFailures = DefaultOptions().ConsecutiveFailures
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = DefaultOptions().OpenTimeout
	}
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.ConsecutiveFailures
		},
		IsSuccessful: opts.IsSuccessful,
	}
	if opts.Logger != nil {
		log := opts.Logger
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		}
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker[any](st)}
}

// Do runs fn through the breaker. Open-state rejections are reported as ErrOpen.
func Do[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	if b == nil {
		return fn()
	}
	v, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, ErrOpen
	}
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	return v.(T), nil
}

func (b *Breaker) State() string {
	return b.cb.State().String()
}
