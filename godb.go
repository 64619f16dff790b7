package godb

import (
	"os"

	"github.com/yale-db/godb-core/catalog"
	"github.com/yale-db/godb-core/common"
	"github.com/yale-db/godb-core/storage"
	"github.com/yale-db/godb-core/transaction"
)

// GoDB is the top-level container wiring together the storage and
// transaction core: a catalog of tables, the buffer pool caching
// their pages, and the lock manager coordinating concurrent
// transactions over them. Catalog and BufferPool are process-wide
// singletons, initialized once per database instance before any
// transaction begins.
type GoDB struct {
	Catalog     *catalog.Catalog
	BufferPool  *storage.BufferPool
	LockManager *transaction.LockManager

	ids *transaction.IDGenerator
}

// NewGoDB opens (creating if absent) a database rooted at dataDir,
// loading its schema from schemaPath, with a buffer pool capped at
// bufferPoolSize pages.
func NewGoDB(schemaPath, dataDir string, bufferPoolSize int) (*GoDB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	cat := catalog.NewCatalog()
	lockMgr := transaction.NewLockManager()
	// cat is handed to the buffer pool before it is populated: both
	// hold the same pointer, so tables registered by LoadFromFile
	// below become visible to the pool's page faults immediately.
	bufferPool := storage.NewBufferPool(bufferPoolSize, cat, lockMgr)
	files := storage.NewDiskFileManager(dataDir)

	if err := cat.LoadFromFile(schemaPath, dataDir, bufferPool, files); err != nil {
		return nil, err
	}

	return &GoDB{
		Catalog:     cat,
		BufferPool:  bufferPool,
		LockManager: lockMgr,
		ids:         transaction.NewIDGenerator(),
	}, nil
}

// BeginTransaction mints a fresh transaction id. A transaction begins
// implicitly at its first lock request; this only hands out the
// identifier used to tag that request.
func (db *GoDB) BeginTransaction() common.TransactionID {
	return db.ids.NextTransactionID()
}

// Commit finalizes tid: every page it dirtied is flushed to disk, then its locks are released.
func (db *GoDB) Commit(tid common.TransactionID) error {
	return db.BufferPool.TransactionComplete(tid, true)
}

// Abort finalizes tid: every page it dirtied is discarded from cache unwritten, then its locks are released.
func (db *GoDB) Abort(tid common.TransactionID) error {
	return db.BufferPool.TransactionComplete(tid, false)
}
