package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"github.com/mobilectl/mobilectl/internal/msg"
)

// Options controls the retry behaviour.
type Options struct {
	// Enabled turns retrying on. When false, the function is invoked exactly once.
	Enabled bool
	// MaxRetries is the number of additional attempts after the first one.
	MaxRetries uint
	// Delay is the fixed pause between a failed attempt and the next one.
	Delay time.Duration
}

// CreateOptions returns the default options.
func CreateOptions() Options {
	return Options{
		Enabled:    true,
		MaxRetries: 2,
		Delay:      2 * time.Second,
	}
}

func (o Options) WithEnabled(enabled bool) Options {
	o.Enabled = enabled
	return o
}

func (o Options) WithMaxRetries(count uint) Options {
	o.MaxRetries = count
	return o
}

func (o Options) WithDelay(delay time.Duration) Options {
	o.Delay = delay
	return o
}

// Outcome describes a successful execution.
type Outcome struct {
	Success  bool
	Attempts int
	Retried  bool
}

// ErrExhausted is matched by ExhaustedError via errors.Is.
var ErrExhausted = errors.New(msg.RetryExhausted)

// ExhaustedError is returned when every attempt failed. It carries the error of the last attempt.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", msg.RetryExhausted, e.Attempts, e.Err)
}

// Unwrap exposes both the sentinel and the last underlying error.
func (e *ExhaustedError) Unwrap() []error {
	return []error{ErrExhausted, e.Err}
}

// Handler is the unit of work to be retried.
type Handler func(ctx context.Context) error

// Do runs handler until it succeeds or the attempts are used up.
// With retries disabled, the handler is called once and its error is returned untouched.
func Do(ctx context.Context, handler Handler, options Options) (Outcome, error) {
	if !options.Enabled {
		if err := handler(ctx); err != nil {
			return Outcome{Attempts: 1}, err
		}
		return Outcome{Success: true, Attempts: 1}, nil
	}

	attempts := 0
	var lastErr error
	operation := func() (struct{}, error) {
		attempts++
		err := handler(ctx)
		if err != nil {
			lastErr = err
			log.Debug().Err(err).Int("attempt", attempts).Msg("Attempt failed.")
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(options.Delay)),
		backoff.WithMaxTries(options.MaxRetries+1),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn().Err(err).Int("attempt", attempts).Dur("retryIn", next).Msg("Retrying.")
		}),
	)
	if err != nil {
		if lastErr == nil {
			// the context ended before the first attempt
			return Outcome{Attempts: attempts}, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil && uint(attempts) < options.MaxRetries+1 {
			return Outcome{Attempts: attempts}, fmt.Errorf("retry stopped after %d attempts: %w (last error: %w)", attempts, ctxErr, lastErr)
		}
		return Outcome{Attempts: attempts}, &ExhaustedError{Attempts: attempts, Err: lastErr}
	}

	return Outcome{Success: true, Attempts: attempts, Retried: attempts > 1}, nil
}
