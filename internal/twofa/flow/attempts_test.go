package flow_test

import (
	"testing"

	"github.com/huddlehq/twofa/internal/twofa/flow"
	"github.com/stretchr/testify/require"
)

func TestAttemptsStartAtCeiling(t *testing.T) {
	a := flow.NewAttempts()
	require.Equal(t, 3, a.Remaining())
	require.False(t, a.LockedOut())
}

func TestAttemptsDecrementToLockout(t *testing.T) {
	a := flow.NewAttempts()

	a = a.RecordFailure()
	require.Equal(t, 2, a.Remaining())
	require.False(t, a.LockedOut())

	a = a.RecordFailure()
	require.Equal(t, 1, a.Remaining())
	require.False(t, a.LockedOut())

	a = a.RecordFailure()
	require.Equal(t, 0, a.Remaining())
	require.True(t, a.LockedOut())
}

func TestAttemptsFloorAtZero(t *testing.T) {
	a := flow.NewAttempts()
	for i := 0; i < 10; i++ {
		a = a.RecordFailure()
	}
	require.Equal(t, 0, a.Remaining())
	require.True(t, a.LockedOut())
}
