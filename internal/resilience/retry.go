package resilience

import (
	"context"
	"log"
	"math/rand"
	"time"
)

// RetryConfig tunes one wrapped operation. The zero value is not useful; use
// DefaultRetryConfig or derive one from pkg/config.
type RetryConfig struct {
	MaxRetries     int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	RateLimitDelay time.Duration
	CircuitBreaker bool

	// Sleep is swappable for tests. Defaults to a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		BaseDelay:      time.Second,
		MaxDelay:       30 * time.Second,
		RateLimitDelay: 60 * time.Second,
		CircuitBreaker: true,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs op under the retry policy, consulting the circuit for operationID
// before every attempt. A rejected call consumes no attempt. Non-retryable
// failures and exhausted budgets record a failure against the circuit and
// come back as an *OperationError; transient failures back off exponentially
// with up to 10% jitter (rate limits hold for a fixed, longer delay).
func Do[T any](ctx context.Context, breakers *BreakerStore, operationID string, cfg RetryConfig, op func(context.Context) (T, error)) (T, error) {
	var zero T
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	var lastClass Class
	attempts := 0

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if cfg.CircuitBreaker && breakers != nil && !breakers.Allow(operationID) {
			return zero, &OperationError{
				OperationID: operationID,
				CircuitOpen: true,
				Attempts:    attempts,
			}
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op(ctx)
		attempts++
		if err == nil {
			if cfg.CircuitBreaker && breakers != nil {
				breakers.Reset(operationID)
			}
			return result, nil
		}

		lastErr = err
		lastClass = Classify(err)
		if !lastClass.Retryable() || attempt == cfg.MaxRetries {
			break
		}

		delay := backoffDelay(cfg, lastClass, attempt)
		log.Printf("operation %s attempt %d failed (%s), retrying in %s: %v",
			operationID, attempts, lastClass, delay, err)
		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}

	if cfg.CircuitBreaker && breakers != nil {
		breakers.RecordFailure(operationID)
	}
	return zero, &OperationError{
		OperationID: operationID,
		Class:       lastClass,
		Attempts:    attempts,
		Err:         lastErr,
	}
}

func backoffDelay(cfg RetryConfig, class Class, attempt int) time.Duration {
	if class == ClassRateLimit {
		return cfg.RateLimitDelay
	}
	delay := cfg.BaseDelay << uint(attempt)
	if delay > cfg.MaxDelay || delay <= 0 {
		delay = cfg.MaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay)/10 + 1))
	return delay + jitter
}
