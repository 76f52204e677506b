package google

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"

	"budgethub/internal/log"
)

// RetryPolicy bounds retries of transient API failures.
type RetryPolicy struct {
	Attempts int
	Base     time.Duration
	Max      time.Duration
}

var DefaultRetryPolicy = RetryPolicy{Attempts: 4, Base: 500 * time.Millisecond, Max: 8 * time.Second}

// sleep waits d or until ctx is done.
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// isTransient reports whether err is a quota or server error worth retrying.
func isTransient(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.Base << attempt
	if d <= 0 || d > p.Max {
		return p.Max
	}
	return d
}

// do runs fn, retrying transient errors with exponential backoff.
func (p RetryPolicy) do(ctx context.Context, op string, fn func() error) error {
	attempts := max(p.Attempts, 1)
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(); err == nil || !isTransient(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}
		d := p.delay(attempt)
		slog.WarnContext(ctx, "Transient Google API error, retrying",
			log.FieldComponent, log.ComponentSheets,
			log.FieldOperation, op,
			log.FieldAttempt, attempt+1,
			"backoff", d,
			log.FieldError, err)
		if serr := sleep(ctx, d); serr != nil {
			return errors.Join(err, serr)
		}
	}
	return err
}
