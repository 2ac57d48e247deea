package mailer

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	"github.com/Hakote/Hakote/internal/logging"
)

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	return &permanentError{err: err}
}

// IsPermanent reports whether the provider refused the message for good
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// RetryPolicy bounds delivery attempts. Waits double from InitialInterval.
// A non-zero AttemptTimeout caps each attempt on its own.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	AttemptTimeout  time.Duration
}

// DefaultRetryPolicy waits 1s, then 2s, between three attempts of at most 10s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialInterval: time.Second, AttemptTimeout: 10 * time.Second}
}

// Retrying retries transient delivery failures with exponential backoff
type Retrying struct {
	next   Transport
	policy RetryPolicy
}

// NewRetrying wraps next with policy
func NewRetrying(next Transport, policy RetryPolicy) *Retrying {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	return &Retrying{next: next, policy: policy}
}

// Deliver tries next until it succeeds, fails permanently, runs out of
// attempts or ctx ends
func (r *Retrying) Deliver(ctx context.Context, msg *Message) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.InitialInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	attempt := 0
	op := func() error {
		attempt++
		actx := ctx
		if r.policy.AttemptTimeout > 0 {
			var cancel context.CancelFunc
			actx, cancel = context.WithTimeout(ctx, r.policy.AttemptTimeout)
			defer cancel()
		}
		err := r.next.Deliver(actx, msg)
		if err != nil && IsPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		logrus.Warnf("Delivery to %s failed (attempt %d/%d), retrying in %s: %v",
			logging.RedactEmail(msg.To), attempt, r.policy.MaxAttempts, wait, err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.policy.MaxAttempts-1)), ctx)
	return backoff.RetryNotify(op, policy, notify)
}

// BreakerSettings configure the circuit breaker
type BreakerSettings struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// DefaultBreakerSettings trips after five consecutive failures
func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{Name: name, FailureThreshold: 5, OpenTimeout: 30 * time.Second}
}

// Breaker stops calling a failing provider until it has had time to recover.
// Permanent rejections of a single message do not count as failures.
type Breaker struct {
	next Transport
	cb   *gobreaker.CircuitBreaker[struct{}]
}

// NewBreaker wraps next
func NewBreaker(next Transport, s BreakerSettings) *Breaker {
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsPermanent(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.Warnf("Mail circuit breaker %s: %s -> %s", name, from, to)
		},
	})
	return &Breaker{next: next, cb: cb}
}

// Deliver calls next unless the breaker is open
func (b *Breaker) Deliver(ctx context.Context, msg *Message) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Deliver(ctx, msg)
	})
	return err
}

// State reports the breaker state
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
