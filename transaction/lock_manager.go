package transaction

import (
	"sync"

	"github.com/yale-db/godb-core/common"
)

// LockMode is the granularity of a page lock: shared (reader) or
// exclusive (writer).
type LockMode int

const (
	Shared LockMode = iota
	Exclusive
)

func (m LockMode) String() string {
	if m == Shared {
		return "SHARED"
	}
	return "EXCLUSIVE"
}

// lockRecord is the per-page lock state: who holds it, in which mode,
// and who is waiting.
type lockRecord struct {
	holders        map[common.TransactionID]LockMode
	sharedCount    int
	exclusiveCount int
	waiters        map[common.TransactionID]LockMode
}

func newLockRecord() *lockRecord {
	return &lockRecord{
		holders: make(map[common.TransactionID]LockMode),
		waiters: make(map[common.TransactionID]LockMode),
	}
}

// LockManager implements per-page shared/exclusive locking with
// wait-for-graph deadlock detection. All bookkeeping lives under a
// single monitor; waiters release it while blocked in Acquire and
// recheck their grant condition on every wakeup.
type LockManager struct {
	mu   sync.Mutex
	cond *sync.Cond

	pageLocks  map[common.PageID]*lockRecord
	transPages map[common.TransactionID]map[common.PageID]struct{}
	waitFor    map[common.TransactionID]map[common.TransactionID]struct{}
}

// NewLockManager creates an empty lock manager.
func NewLockManager() *LockManager {
	lm := &LockManager{
		pageLocks:  make(map[common.PageID]*lockRecord),
		transPages: make(map[common.TransactionID]map[common.PageID]struct{}),
		waitFor:    make(map[common.TransactionID]map[common.TransactionID]struct{}),
	}
	lm.cond = sync.NewCond(&lm.mu)
	return lm
}

func (lm *LockManager) record(pid common.PageID) *lockRecord {
	rec, ok := lm.pageLocks[pid]
	if !ok {
		rec = newLockRecord()
		lm.pageLocks[pid] = rec
	}
	return rec
}

// canGrant reports whether tid can be granted mode on rec right now,
// given its current holders. For EXCLUSIVE this is also the upgrade
// condition: a transaction that is the sole holder (in any mode) may
// always move to EXCLUSIVE.
func canGrant(tid common.TransactionID, rec *lockRecord, mode LockMode) bool {
	switch mode {
	case Shared:
		if rec.exclusiveCount == 0 {
			return true
		}
		m, held := rec.holders[tid]
		return held && m == Exclusive && len(rec.holders) == 1
	case Exclusive:
		if len(rec.holders) == 0 {
			return true
		}
		if len(rec.holders) == 1 {
			_, held := rec.holders[tid]
			return held
		}
		return false
	}
	return false
}

// grant records tid as a holder of rec in mode. Re-entry (already
// holding the requested mode, or already holding EXCLUSIVE while
// SHARED is requested) is a no-op. A SHARED holder requesting
// EXCLUSIVE upgrades in place: it never releases the page between the
// two grants, only one of the two lock-manager contract's acceptable
// resolutions of the upgrade sequencing (see grant rules).
func grant(tid common.TransactionID, rec *lockRecord, mode LockMode) {
	cur, held := rec.holders[tid]
	if held {
		if cur == mode || (cur == Exclusive && mode == Shared) {
			return
		}
		// cur == Shared && mode == Exclusive: upgrade
		rec.sharedCount--
		rec.exclusiveCount++
		rec.holders[tid] = Exclusive
		return
	}
	rec.holders[tid] = mode
	if mode == Shared {
		rec.sharedCount++
	} else {
		rec.exclusiveCount++
	}
}

func (lm *LockManager) track(tid common.TransactionID, pid common.PageID) {
	pages, ok := lm.transPages[tid]
	if !ok {
		pages = make(map[common.PageID]struct{})
		lm.transPages[tid] = pages
	}
	pages[pid] = struct{}{}
}

// addWaitEdges inserts an edge from tid to every current holder of
// rec other than tid itself.
func (lm *LockManager) addWaitEdges(tid common.TransactionID, rec *lockRecord) {
	edges, ok := lm.waitFor[tid]
	if !ok {
		edges = make(map[common.TransactionID]struct{})
		lm.waitFor[tid] = edges
	}
	for holder := range rec.holders {
		if holder != tid {
			edges[holder] = struct{}{}
		}
	}
}

func (lm *LockManager) clearWaitEdges(tid common.TransactionID) {
	delete(lm.waitFor, tid)
}

// hasCycle runs a breadth-first search from start over the wait-for
// graph, skipping self-edges, looking for a path back to start.
func (lm *LockManager) hasCycle(start common.TransactionID) bool {
	visited := map[common.TransactionID]bool{start: true}
	queue := []common.TransactionID{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for next := range lm.waitFor[cur] {
			if next == start {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// Acquire blocks the caller until tid holds mode on pid, then records
// the grant. It returns a Deadlock error if granting would require
// waiting on a cycle in the wait-for graph; in that case the requested
// mode is not granted (a SHARED lock tid already held on pid is kept)
// and the caller is expected to abort tid.
func (lm *LockManager) Acquire(tid common.TransactionID, pid common.PageID, mode LockMode) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	rec := lm.record(pid)
	if canGrant(tid, rec, mode) {
		grant(tid, rec, mode)
		lm.track(tid, pid)
		return nil
	}

	rec.waiters[tid] = mode
	defer delete(rec.waiters, tid)

	for !canGrant(tid, rec, mode) {
		lm.addWaitEdges(tid, rec)
		if lm.hasCycle(tid) {
			lm.clearWaitEdges(tid)
			return common.NewError(common.Deadlock, "transaction %d deadlocked requesting %s on %s", tid, mode, pid)
		}
		lm.cond.Wait()
		lm.clearWaitEdges(tid)
	}

	grant(tid, rec, mode)
	lm.track(tid, pid)
	return nil
}

// Release removes tid as a holder of pid and wakes all waiters. If
// removeFromIndex, pid is also dropped from tid's held-page set
// (callers use this for early release outside normal two-phase
// discipline; see ReleasePage).
func (lm *LockManager) Release(tid common.TransactionID, pid common.PageID, removeFromIndex bool) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	rec, ok := lm.pageLocks[pid]
	if !ok {
		return
	}
	mode, held := rec.holders[tid]
	if !held {
		return
	}
	delete(rec.holders, tid)
	if mode == Shared {
		rec.sharedCount--
	} else {
		rec.exclusiveCount--
	}
	if removeFromIndex {
		if pages, ok := lm.transPages[tid]; ok {
			delete(pages, pid)
		}
	}
	lm.cond.Broadcast()
}

// ReleaseAll releases every lock held by tid and clears its held-page set.
func (lm *LockManager) ReleaseAll(tid common.TransactionID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	for pid := range lm.transPages[tid] {
		rec, ok := lm.pageLocks[pid]
		if !ok {
			continue
		}
		mode, held := rec.holders[tid]
		if !held {
			continue
		}
		delete(rec.holders, tid)
		if mode == Shared {
			rec.sharedCount--
		} else {
			rec.exclusiveCount--
		}
	}
	delete(lm.transPages, tid)
	delete(lm.waitFor, tid)
	lm.cond.Broadcast()
}

// HoldsLock reports whether tid currently holds any lock on pid.
func (lm *LockManager) HoldsLock(tid common.TransactionID, pid common.PageID) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	rec, ok := lm.pageLocks[pid]
	if !ok {
		return false
	}
	_, held := rec.holders[tid]
	return held
}

// PagesHeld returns a snapshot of the set of pages tid holds a lock
// on, or nil if it holds none.
func (lm *LockManager) PagesHeld(tid common.TransactionID) map[common.PageID]struct{} {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	pages, ok := lm.transPages[tid]
	if !ok || len(pages) == 0 {
		return nil
	}
	cp := make(map[common.PageID]struct{}, len(pages))
	for p := range pages {
		cp[p] = struct{}{}
	}
	return cp
}
