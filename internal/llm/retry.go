package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrAttemptTimeout marks an attempt cut off by the per-attempt timeout.
var ErrAttemptTimeout = errors.New("llm: attempt timed out")

// Class groups failures by how the retry policy treats them.
type Class int

const (
	ClassPermanent Class = iota
	ClassRateLimited
	ClassServer
	ClassTimeout
	ClassCanceled
)

func (c Class) String() string {
	switch c {
	case ClassRateLimited:
		return "rate_limited"
	case ClassServer:
		return "server"
	case ClassTimeout:
		return "timeout"
	case ClassCanceled:
		return "canceled"
	default:
		return "permanent"
	}
}

func (c Class) retryable() bool {
	return c == ClassRateLimited || c == ClassServer || c == ClassTimeout
}

// Classify maps a provider error to its Class.
func Classify(err error) Class {
	if err == nil {
		return ClassPermanent
	}
	if errors.Is(err, ErrAttemptTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ClassCanceled
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.Code == http.StatusTooManyRequests:
			return ClassRateLimited
		case se.Code >= 500:
			return ClassServer
		default:
			return ClassPermanent
		}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ClassTimeout
	}
	return ClassPermanent
}

// Decision is the outcome of RetryPolicy.Decide.
type Decision struct {
	Retry bool
	Delay time.Duration
}

type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries     int
	BaseDelay      time.Duration
	AttemptTimeout time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, BaseDelay: 500 * time.Millisecond, AttemptTimeout: 30 * time.Second}
}

// Decide reports whether the failed attempt (numbered from 1) is retried and
// how long to wait first. The delay grows linearly with the attempt number.
func (p RetryPolicy) Decide(attempt int, class Class) Decision {
	if !class.retryable() || attempt > p.MaxRetries {
		return Decision{}
	}
	return Decision{Retry: true, Delay: p.BaseDelay * time.Duration(attempt)}
}

// Retrying wraps a Client with a RetryPolicy.
type Retrying struct {
	next   Client
	policy RetryPolicy
	log    *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewRetrying(next Client, policy RetryPolicy, log *zap.Logger) *Retrying {
	if log == nil {
		log = zap.NewNop()
	}
	return &Retrying{next: next, policy: policy, log: log, sleep: sleepCtx}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Complete runs the request until it succeeds or the policy gives up. The
// last observed error is returned when retries are exhausted.
func (r *Retrying) Complete(ctx context.Context, req Request) (string, error) {
	for attempt := 1; ; attempt++ {
		out, err := r.attempt(ctx, req)
		if err == nil {
			return out, nil
		}

		class := Classify(err)
		if ctx.Err() != nil {
			class = ClassCanceled
		}
		d := r.policy.Decide(attempt, class)
		if !d.Retry {
			if attempt > 1 {
				return "", fmt.Errorf("llm: giving up after %d attempts: %w", attempt, err)
			}
			return "", err
		}

		r.log.Warn("model call failed, retrying",
			zap.Int("attempt", attempt),
			zap.Stringer("class", class),
			zap.Duration("delay", d.Delay),
			zap.Error(err))
		if serr := r.sleep(ctx, d.Delay); serr != nil {
			return "", err
		}
	}
}

func (r *Retrying) attempt(ctx context.Context, req Request) (string, error) {
	if r.policy.AttemptTimeout <= 0 {
		return r.next.Complete(ctx, req)
	}
	actx, cancel := context.WithTimeout(ctx, r.policy.AttemptTimeout)
	defer cancel()

	out, err := r.next.Complete(actx, req)
	if err != nil && ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w: %v", ErrAttemptTimeout, err)
	}
	return out, err
}
