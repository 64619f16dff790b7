package storage

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yale-db/godb-core/common"
	"github.com/yale-db/godb-core/transaction"
)

// Permission is the access mode a caller requests when fetching a page.
type Permission int

const (
	ReadOnly Permission = iota
	ReadWrite
)

func (p Permission) lockMode() transaction.LockMode {
	if p == ReadWrite {
		return transaction.Exclusive
	}
	return transaction.Shared
}

// CatalogView is the narrow slice of the catalog the buffer pool
// needs. It exists so storage never imports catalog: catalog imports
// storage and implements this interface instead.
type CatalogView interface {
	// GetHeapFile returns the heap file backing table id.
	GetHeapFile(id common.TableID) (*HeapFile, error)
}

// BufferPool is a bounded, access-order LRU cache of heap pages,
// backed by a NO-STEAL eviction policy: a dirty page is never evicted
// before its writing transaction commits or aborts. Every page fetch
// first acquires the appropriate lock through the lock manager.
type BufferPool struct {
	maxPages int
	catalog  CatalogView
	lockMgr  *transaction.LockManager

	mu    sync.Mutex
	pages map[common.PageID]*HeapPage
	// order tracks access recency only; it never auto-evicts (sized
	// far beyond maxPages) because NO-STEAL eviction is our
	// responsibility, not a generic cache policy's.
	order *lru.Cache[common.PageID, struct{}]
}

// unboundedOrderCapacity sizes the recency-order index so it never
// triggers its own eviction; BufferPool.evictLocked is the only thing
// that removes entries.
const unboundedOrderCapacity = 1 << 20

// NewBufferPool creates a pool holding at most maxPages pages at once.
func NewBufferPool(maxPages int, catalog CatalogView, lockMgr *transaction.LockManager) *BufferPool {
	common.Assert(maxPages > 0, "buffer pool capacity must be positive")
	order, err := lru.New[common.PageID, struct{}](unboundedOrderCapacity)
	common.Assert(err == nil, "failed to build eviction order index: %v", err)
	return &BufferPool{
		maxPages: maxPages,
		catalog:  catalog,
		lockMgr:  lockMgr,
		pages:    make(map[common.PageID]*HeapPage),
		order:    order,
	}
}

// GetPage acquires the lock matching perm on pid (blocking; may return
// Deadlock), then returns the page, loading it from cache, disk, or
// (for a page one past the current end of file) a fresh empty
// template.
func (bp *BufferPool) GetPage(tid common.TransactionID, pid common.PageID, perm Permission) (*HeapPage, error) {
	if err := bp.lockMgr.Acquire(tid, pid, perm.lockMode()); err != nil {
		return nil, err
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()

	if page, ok := bp.pages[pid]; ok {
		bp.order.Add(pid, struct{}{})
		return page, nil
	}

	hf, err := bp.catalog.GetHeapFile(pid.TableID)
	if err != nil {
		return nil, err
	}
	numPages, err := hf.NumPages()
	if err != nil {
		return nil, err
	}

	var page *HeapPage
	if int(pid.PageNum) < numPages {
		page, err = hf.readPageFromDisk(int(pid.PageNum))
	} else {
		page, err = NewHeapPage(pid, hf.Desc(), CreateEmptyPageData())
	}
	if err != nil {
		return nil, err
	}

	if len(bp.pages) >= bp.maxPages {
		if err := bp.evictLocked(); err != nil {
			return nil, err
		}
	}
	bp.pages[pid] = page
	bp.order.Add(pid, struct{}{})
	return page, nil
}

// evictLocked removes the least-recently-touched clean page from the
// cache. Must be called with bp.mu held. Fails with NoCleanVictim if
// every resident page is dirty.
func (bp *BufferPool) evictLocked() error {
	for _, pid := range bp.order.Keys() {
		page, ok := bp.pages[pid]
		if !ok {
			continue
		}
		if dirty, _ := page.IsDirty(); dirty {
			continue
		}
		delete(bp.pages, pid)
		bp.order.Remove(pid)
		return nil
	}
	return common.NewError(common.NoCleanVictim, "buffer pool full and every resident page is dirty")
}

// InsertTuple inserts t into table tableID via its heap file, then
// marks the returned dirtied pages (exactly one) dirty and bumps recency.
func (bp *BufferPool) InsertTuple(tid common.TransactionID, tableID common.TableID, t *Tuple) error {
	hf, err := bp.catalog.GetHeapFile(tableID)
	if err != nil {
		return err
	}
	dirtied, err := hf.InsertTuple(tid, t)
	if err != nil {
		return err
	}
	bp.markDirtied(tid, dirtied)
	return nil
}

// DeleteTuple deletes t via its owning heap file, marking the
// returned dirtied page dirty and bumping recency.
func (bp *BufferPool) DeleteTuple(tid common.TransactionID, t *Tuple) error {
	rid := t.RecordID()
	hf, err := bp.catalog.GetHeapFile(rid.TableID)
	if err != nil {
		return err
	}
	pid, err := hf.DeleteTuple(tid, t)
	if err != nil {
		return err
	}
	bp.markDirtied(tid, []common.PageID{pid})
	return nil
}

func (bp *BufferPool) markDirtied(tid common.TransactionID, pids []common.PageID) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for _, pid := range pids {
		if page, ok := bp.pages[pid]; ok {
			page.MarkDirty(true, tid)
			bp.order.Add(pid, struct{}{})
		}
	}
}

// TransactionComplete finalizes tid: for each page it held, commit
// flushes it (clearing the dirty flag) or abort discards it from the
// cache without writing. It then releases all of tid's locks.
func (bp *BufferPool) TransactionComplete(tid common.TransactionID, commit bool) error {
	held := bp.lockMgr.PagesHeld(tid)

	var firstErr error
	for pid := range held {
		if commit {
			if err := bp.FlushPage(pid); err != nil && firstErr == nil {
				firstErr = err
			}
			continue
		}
		bp.mu.Lock()
		delete(bp.pages, pid)
		bp.order.Remove(pid)
		bp.mu.Unlock()
	}

	bp.lockMgr.ReleaseAll(tid)
	return firstErr
}

// FlushPage writes pid to disk and clears its dirty flag. A no-op if
// pid is not cached or not dirty.
func (bp *BufferPool) FlushPage(pid common.PageID) error {
	bp.mu.Lock()
	page, ok := bp.pages[pid]
	bp.mu.Unlock()
	if !ok {
		return nil
	}
	if dirty, _ := page.IsDirty(); !dirty {
		return nil
	}

	hf, err := bp.catalog.GetHeapFile(pid.TableID)
	if err != nil {
		return err
	}
	if err := hf.writePageToDisk(page); err != nil {
		return err
	}
	page.MarkDirty(false, common.InvalidTransactionID)
	return nil
}

// ReleasePage releases tid's lock on pid immediately, ahead of
// transaction completion. Callers that use this accept that the
// resulting schedule may no longer be strictly two-phase.
func (bp *BufferPool) ReleasePage(tid common.TransactionID, pid common.PageID) {
	bp.lockMgr.Release(tid, pid, true)
}
