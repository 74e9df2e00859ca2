package registry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"oras.land/oras-go/v2/errdef"

	"github.com/mcpkit-dev/mcpkit/internal/mcperr"
)

const (
	maxAttempts  = 5
	initialDelay = 200 * time.Millisecond
	maxDelay     = 5 * time.Second
)

// classify maps an oras-go/HTTP error into the mcperr taxonomy so withRetry
// can decide whether it's worth another attempt.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errdef.ErrNotFound) {
		return mcperr.Wrap(mcperr.KindRegistryNotFound, "resolve reference", err)
	}

	var statusErr interface{ StatusCode() int }
	if errors.As(err, &statusErr) {
		code := statusErr.StatusCode()
		switch {
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return mcperr.Wrap(mcperr.KindRegistryAuth, "registry request", err)
		case code == http.StatusNotFound:
			return mcperr.Wrap(mcperr.KindRegistryNotFound, "registry request", err)
		case code >= 500:
			return mcperr.Wrap(mcperr.KindRegistryTransient, "registry request", err)
		default:
			return mcperr.Wrap(mcperr.KindRegistryFatal, "registry request", err)
		}
	}

	return mcperr.Wrap(mcperr.KindRegistryTransient, "registry request", err)
}

// withRetry runs fn, retrying with exponential backoff while the returned
// error classifies as retryable, up to maxAttempts total tries.
func withRetry(ctx context.Context, fn func() error) error {
	delay := initialDelay
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		var mErr *mcperr.Error
		if !errors.As(lastErr, &mErr) || !mcperr.Retryable(mErr.Kind) || attempt == maxAttempts {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return lastErr
}
