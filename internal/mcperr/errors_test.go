package mcperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapNilCauseReturnsNil(t *testing.T) {
	err := Wrap(KindIO, "read", nil)
	assert.Nil(t, err)
}

func TestIsMatchesThroughUnwrap(t *testing.T) {
	base := New(KindPolicyDenied, "tool not allowed")
	wrapped := fmt.Errorf("invoking calc.add: %w", base)
	assert.True(t, Is(wrapped, KindPolicyDenied))
	assert.False(t, Is(wrapped, KindWasmTrap))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(KindRegistryTransient))
	assert.False(t, Retryable(KindRegistryFatal))
}

func TestErrorsAsWorks(t *testing.T) {
	var target *Error
	err := fmt.Errorf("wrap: %w", Wrap(KindBundleDigestMismatch, "module", errors.New("boom")))
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, KindBundleDigestMismatch, target.Kind)
}
