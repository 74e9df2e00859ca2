package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/mcpkit-dev/mcpkit/internal/mcperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusError struct{ code int }

func (e statusError) Error() string  { return "status error" }
func (e statusError) StatusCode() int { return e.code }

func TestClassifyMapsStatusCodes(t *testing.T) {
	assert.True(t, mcperr.Is(classify(statusError{code: 401}), mcperr.KindRegistryAuth))
	assert.True(t, mcperr.Is(classify(statusError{code: 404}), mcperr.KindRegistryNotFound))
	assert.True(t, mcperr.Is(classify(statusError{code: 503}), mcperr.KindRegistryTransient))
	assert.True(t, mcperr.Is(classify(statusError{code: 400}), mcperr.KindRegistryFatal))
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return classify(statusError{code: 503})
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryGivesUpOnFatalError(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), func() error {
		attempts++
		return classify(statusError{code: 400})
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := withRetry(ctx, func() error {
		return classify(statusError{code: 503})
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
