package local

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_SucceedsWhenFree(t *testing.T) {
	ctx := context.Background()
	l, err := NewLease(filepath.Join(t.TempDir(), "lease.json"), time.Minute)
	require.NoError(t, err)

	ok, err := l.Acquire(ctx, "holder-a")

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAcquire_FailsForDifferentHolderWhileFresh(t *testing.T) {
	ctx := context.Background()
	l, err := NewLease(filepath.Join(t.TempDir(), "lease.json"), time.Minute)
	require.NoError(t, err)

	ok, err := l.Acquire(ctx, "holder-a")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Acquire(ctx, "holder-b")

	require.NoError(t, err)
	assert.False(t, ok, "a fresh lease held by another holder must not be reclaimable")
}

func TestAcquire_ReclaimsStaleLeaseAfterTwiceThePeriod(t *testing.T) {
	ctx := context.Background()
	period := 20 * time.Millisecond
	l, err := NewLease(filepath.Join(t.TempDir(), "lease.json"), period)
	require.NoError(t, err)

	ok, err := l.Acquire(ctx, "holder-a")
	require.NoError(t, err)
	require.True(t, ok)

	// Still within the 2x grace window: not yet reclaimable.
	ok, err = l.Acquire(ctx, "holder-b")
	require.NoError(t, err)
	assert.False(t, ok)

	time.Sleep(3 * period)

	ok, err = l.Acquire(ctx, "holder-b")
	require.NoError(t, err)
	assert.True(t, ok, "a lease stale beyond 2x its period must be reclaimable")
}

func TestRenew_ExtendsOnlyForCurrentHolder(t *testing.T) {
	ctx := context.Background()
	l, err := NewLease(filepath.Join(t.TempDir(), "lease.json"), time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "holder-a")
	require.NoError(t, err)

	ok, err := l.Renew(ctx, "holder-b")
	require.NoError(t, err)
	assert.False(t, ok, "a non-holder cannot renew")

	ok, err = l.Renew(ctx, "holder-a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRelease_OnlyCurrentHolderCanRelease(t *testing.T) {
	ctx := context.Background()
	l, err := NewLease(filepath.Join(t.TempDir(), "lease.json"), time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "holder-a")
	require.NoError(t, err)

	require.NoError(t, l.Release(ctx, "holder-b"))

	ok, err := l.Acquire(ctx, "holder-b")
	require.NoError(t, err)
	assert.False(t, ok, "release by a non-holder must be a no-op, leaving holder-a's lease intact")

	require.NoError(t, l.Release(ctx, "holder-a"))

	ok, err = l.Acquire(ctx, "holder-b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReachable_TrueWhenDirectoryExists(t *testing.T) {
	l, err := NewLease(filepath.Join(t.TempDir(), "lease.json"), time.Minute)
	require.NoError(t, err)

	assert.True(t, l.Reachable(context.Background()))
}
