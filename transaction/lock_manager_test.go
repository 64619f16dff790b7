package transaction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yale-db/godb-core/common"
)

func testPage(n int32) common.PageID {
	return common.PageID{TableID: 1, PageNum: n}
}

func TestLockManagerSharedLocksCoexist(t *testing.T) {
	lm := NewLockManager()
	p := testPage(0)

	require.NoError(t, lm.Acquire(1, p, Shared))
	require.NoError(t, lm.Acquire(2, p, Shared))
	require.NoError(t, lm.Acquire(3, p, Shared))

	assert.True(t, lm.HoldsLock(1, p))
	assert.True(t, lm.HoldsLock(2, p))
	assert.True(t, lm.HoldsLock(3, p))
}

func TestLockManagerExclusiveExcludesEveryoneElse(t *testing.T) {
	lm := NewLockManager()
	p := testPage(0)
	require.NoError(t, lm.Acquire(1, p, Exclusive))

	done := make(chan error, 1)
	go func() { done <- lm.Acquire(2, p, Shared) }()

	select {
	case <-done:
		t.Fatal("a shared request should block behind an exclusive holder")
	case <-time.After(50 * time.Millisecond):
	}

	lm.Release(1, p, true)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("shared request never granted after exclusive release")
	}
}

func TestLockManagerReentrantAcquireIsNoop(t *testing.T) {
	lm := NewLockManager()
	p := testPage(0)
	require.NoError(t, lm.Acquire(1, p, Shared))
	require.NoError(t, lm.Acquire(1, p, Shared))
	require.NoError(t, lm.Acquire(1, p, Exclusive))
	// already holding EXCLUSIVE, a further SHARED request is satisfied without downgrading
	require.NoError(t, lm.Acquire(1, p, Shared))
	assert.True(t, lm.HoldsLock(1, p))
}

func TestLockManagerSoleSharedHolderUpgrades(t *testing.T) {
	lm := NewLockManager()
	p := testPage(0)
	require.NoError(t, lm.Acquire(1, p, Shared))
	require.NoError(t, lm.Acquire(1, p, Exclusive))
	assert.True(t, lm.HoldsLock(1, p))

	// a second transaction must still wait for the upgraded exclusive hold
	done := make(chan error, 1)
	go func() { done <- lm.Acquire(2, p, Shared) }()
	select {
	case <-done:
		t.Fatal("upgrade should still be exclusive to other transactions")
	case <-time.After(50 * time.Millisecond):
	}
	lm.ReleaseAll(1)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("second transaction's shared request never granted")
	}
}

func TestLockManagerTwoPhaseReleaseAllAtOnce(t *testing.T) {
	lm := NewLockManager()
	p0, p1 := testPage(0), testPage(1)
	require.NoError(t, lm.Acquire(1, p0, Shared))
	require.NoError(t, lm.Acquire(1, p1, Exclusive))

	held := lm.PagesHeld(1)
	assert.Len(t, held, 2)

	lm.ReleaseAll(1)
	assert.False(t, lm.HoldsLock(1, p0))
	assert.False(t, lm.HoldsLock(1, p1))
	assert.Nil(t, lm.PagesHeld(1))
}

func TestLockManagerDeadlockDetected(t *testing.T) {
	lm := NewLockManager()
	p0, p1 := testPage(0), testPage(1)

	require.NoError(t, lm.Acquire(1, p0, Exclusive))
	require.NoError(t, lm.Acquire(2, p1, Exclusive))

	errCh := make(chan error, 1)
	go func() { errCh <- lm.Acquire(2, p0, Exclusive) }()

	// give transaction 2 time to register as a waiter on p0 before we
	// complete the cycle with transaction 1 waiting on p1.
	time.Sleep(50 * time.Millisecond)

	err := lm.Acquire(1, p1, Exclusive)
	require.Error(t, err, "closing the wait-for cycle should be detected as a deadlock")
	assert.Equal(t, common.Deadlock, err.(common.GoDBError).Code)

	// the transaction that lost the deadlock check aborts, releasing
	// its locks; the survivor's blocked acquire can now be granted.
	lm.ReleaseAll(1)
	require.NoError(t, <-errCh)
}

func TestLockManagerPagesHeldReturnsDefensiveCopy(t *testing.T) {
	lm := NewLockManager()
	p := testPage(0)
	require.NoError(t, lm.Acquire(1, p, Shared))

	held := lm.PagesHeld(1)
	delete(held, p)

	stillHeld := lm.PagesHeld(1)
	assert.Len(t, stillHeld, 1, "mutating a returned snapshot must not affect internal state")
}
