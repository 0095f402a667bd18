// Package retry layers retry-with-backoff over parseq's RecoverWith.
// Unlike a retry wrapper built around a context.Context-driven Run func,
// this package wraps a task factory: since a parseq.Task runs its body at
// most once, a retry attempt is a brand new task produced by calling
// factory again, chained onto the previous attempt's failure via
// RecoverWith.
package retry

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/parseq-go/parseq"
)

// Policy configures retry behavior.
type Policy struct {
	// MaxRetries is the number of retry attempts after the initial
	// failure. 0 means no retries.
	MaxRetries int

	// Backoff determines the delay before each retry. Nil means retry
	// immediately.
	Backoff BackoffStrategy

	// ShouldRetry decides whether a given error warrants another attempt.
	// Nil means retry on any error.
	ShouldRetry func(error) bool

	// OnRetry is invoked before scheduling each retry attempt, with a
	// 0-indexed attempt number.
	OnRetry func(attempt int, err error)
}

// BackoffStrategy determines the delay before a given retry attempt.
type BackoffStrategy interface {
	// Next returns the delay before retry attempt (0-indexed), and
	// whether a delay applies at all.
	Next(attempt int) (time.Duration, bool)
}

// ConstantBackoff delays every attempt by the same duration.
type ConstantBackoff struct {
	Delay time.Duration
}

// Next implements BackoffStrategy.
func (c ConstantBackoff) Next(_ int) (time.Duration, bool) { return c.Delay, true }

// ExponentialBackoff delays attempt n by Base*Multiplier^n, capped at Max,
// with optional jitter.
type ExponentialBackoff struct {
	Base       time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// Next implements BackoffStrategy.
func (e ExponentialBackoff) Next(attempt int) (time.Duration, bool) {
	mult := e.Multiplier
	if mult == 0 {
		mult = 2.0
	}
	delay := float64(e.Base) * math.Pow(mult, float64(attempt))
	if e.Jitter > 0 {
		delay *= 1.0 + e.Jitter*(2*rand.Float64()-1)
	}
	if e.Max > 0 && time.Duration(delay) > e.Max {
		delay = float64(e.Max)
	}
	return time.Duration(delay), true
}

// LinearBackoff delays attempt n by Initial+n*Increment, capped at Max.
type LinearBackoff struct {
	Initial   time.Duration
	Increment time.Duration
	Max       time.Duration
}

// Next implements BackoffStrategy.
func (l LinearBackoff) Next(attempt int) (time.Duration, bool) {
	delay := l.Initial + time.Duration(attempt)*l.Increment
	if l.Max > 0 && delay > l.Max {
		delay = l.Max
	}
	return delay, true
}

// OnAny retries on any non-nil error.
func OnAny(err error) bool { return err != nil }

// OnTimeout retries only errors wrapping parseq.ErrTimeout.
func OnTimeout(err error) bool { return errors.Is(err, parseq.ErrTimeout) }

// Never never retries; useful to keep a Policy's observability (OnRetry)
// while disabling retries outright.
func Never(_ error) bool { return false }

// On returns a predicate that retries when err wraps any of targets.
func On(targets ...error) func(error) bool {
	return func(err error) bool {
		for _, t := range targets {
			if errors.Is(err, t) {
				return true
			}
		}
		return false
	}
}

// With returns a task that runs factory(0), and on failure, schedules
// factory(1), factory(2), ... up to policy.MaxRetries further attempts,
// waiting policy.Backoff's delay between them. It adopts whichever
// attempt's outcome is first to succeed, or the final attempt's failure
// once retries are exhausted.
func With[T any](name string, policy Policy, factory func(attempt int) *parseq.Task[T]) *parseq.Task[T] {
	return attempt(name, policy, factory, 0)
}

func attempt[T any](name string, policy Policy, factory func(int) *parseq.Task[T], n int) *parseq.Task[T] {
	t := factory(n)
	if n >= policy.MaxRetries {
		return t
	}
	return parseq.RecoverWith(t, name, func(err error) *parseq.Task[T] {
		shouldRetry := policy.ShouldRetry
		if shouldRetry == nil {
			shouldRetry = OnAny
		}
		if !shouldRetry(err) {
			return parseq.Failure[T](name+".exhausted", err)
		}
		if policy.OnRetry != nil {
			policy.OnRetry(n, err)
		}
		delay := backoffDelay(policy, n)
		if delay <= 0 {
			return attempt(name, policy, factory, n+1)
		}
		timer := parseq.SystemHidden(parseq.WithTimer(name+".backoff", delay))
		return parseq.FlatMap(timer, name+".after-backoff", func(struct{}) *parseq.Task[T] {
			return attempt(name, policy, factory, n+1)
		})
	})
}

func backoffDelay(policy Policy, n int) time.Duration {
	if policy.Backoff == nil {
		return 0
	}
	delay, ok := policy.Backoff.Next(n)
	if !ok {
		return 0
	}
	return delay
}
