package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestStatusTransitions walks the lifecycle state machine.
func TestStatusTransitions(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusOpen, StatusCommitted, true},
		{StatusOpen, StatusRolledBack, true},
		{StatusOpen, StatusPartiallyRolledBack, true},
		{StatusOpen, StatusAbandoned, true},
		{StatusCommitted, StatusRolledBack, true},
		{StatusCommitted, StatusCommitted, false},
		{StatusAbandoned, StatusRolledBack, true},
		{StatusPartiallyRolledBack, StatusRolledBack, true},
		{StatusRolledBack, StatusCommitted, false},
		{StatusRolledBack, StatusRolledBack, false},
		{StatusCommitted, StatusOpen, false},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.allowed, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}
