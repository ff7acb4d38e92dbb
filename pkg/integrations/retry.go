package integrations

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// Backoff controls how failed index requests are retried. Only errors
// marked temporary by the client (transport failures, 429 and 5xx answers)
// are retried.
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// DefaultBackoff tries three times, waiting 1s and then 2s.
var DefaultBackoff = Backoff{Attempts: 3, Initial: time.Second, Max: 30 * time.Second}

type temporaryError struct {
	err        error
	retryAfter time.Duration
}

func (e *temporaryError) Error() string { return e.err.Error() }
func (e *temporaryError) Unwrap() error { return e.err }

// temporary marks err as worth retrying after the given delay; zero lets
// the backoff decide.
func temporary(err error, retryAfter time.Duration) error {
	if err == nil {
		return nil
	}
	return &temporaryError{err: err, retryAfter: retryAfter}
}

// IsTemporary reports whether err is worth retrying.
func IsTemporary(err error) bool {
	var te *temporaryError
	return errors.As(err, &te)
}

// parseRetryAfter reads a Retry-After header given in seconds. HTTP dates
// are ignored: the index answers in seconds.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// Do calls fn until it succeeds, fails permanently, the attempts are used
// up or ctx is done. The delay doubles after every attempt unless the
// index asked for a specific one, and never exceeds Max.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Initial
	var err error
	for i := range attempts {
		if err = fn(); err == nil {
			return nil
		}
		var te *temporaryError
		if !errors.As(err, &te) || i == attempts-1 {
			return err
		}

		wait := delay
		if te.retryAfter > 0 {
			wait = te.retryAfter
		}
		if b.Max > 0 {
			wait = min(wait, b.Max)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return err
}
