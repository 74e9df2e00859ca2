package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateTransitionsHappyPath(t *testing.T) {
	var s State
	require.NoError(t, s.transition(StateReady))
	require.NoError(t, s.transition(StateRunning))
	require.NoError(t, s.transition(StateCompleted))
	assert.True(t, s.terminal())
}

func TestStateTransitionRejectsSkippingSteps(t *testing.T) {
	var s State
	err := s.transition(StateRunning)
	assert.Error(t, err)
}

func TestStateDestroyAlwaysSucceeds(t *testing.T) {
	s := StateFailedTrap
	s.destroy()
	assert.Equal(t, StateDestroyed, s)
}

func TestPackUnpackPtrLenRoundTrip(t *testing.T) {
	packed := packPtrLen(1234, 5678)
	ptr, length := unpackPtrLen(packed)
	assert.Equal(t, uint32(1234), ptr)
	assert.Equal(t, uint32(5678), length)
}
