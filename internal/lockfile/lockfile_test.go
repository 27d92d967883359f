package lockfile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for lockfile:
// - Acquire then Release allows a subsequent Acquire to succeed
// - TryAcquire fails while another process-local lock is held

func TestAcquireRelease_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".lock")

	lock, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, lock.Release())

	lock2, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, lock2.Release())
}

func TestTryAcquire_FailsWhileHeld(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".lock")

	lock, err := Acquire(path)
	require.NoError(t, err)
	defer lock.Release()

	_, ok, err := TryAcquire(path)
	require.NoError(t, err)
	assert.False(t, ok)
}
