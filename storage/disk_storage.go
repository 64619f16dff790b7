package storage

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/yale-db/godb-core/common"
)

// DiskDBFile implements DBFile using a standard OS file.
type DiskDBFile struct {
	file *os.File
	// numPages caches the page count to avoid a stat() on every read.
	// Updated atomically whenever WritePage extends the file.
	numPages atomic.Int32
	// extendMu serializes the one-past-end extension so two concurrent
	// writers targeting the same new page number cannot both truncate.
	extendMu sync.Mutex
}

// NewDiskDBFile wraps an already-open OS file, inferring its current
// page count as ceil(length / common.PageSize).
func NewDiskDBFile(file *os.File) (*DiskDBFile, error) {
	stat, err := file.Stat()
	if err != nil {
		return nil, common.WrapIoError(err, "stat db file")
	}
	f := &DiskDBFile{file: file}
	pageSize := int64(common.PageSize)
	f.numPages.Store(int32((stat.Size() + pageSize - 1) / pageSize))
	return f, nil
}

// ReadPage reads page pageNum into frame.
func (f *DiskDBFile) ReadPage(pageNum int, frame []byte) error {
	common.Assert(len(frame) == common.PageSize, "frame must be exactly PageSize bytes")
	if pageNum < 0 || int32(pageNum) >= f.numPages.Load() {
		return common.NewError(common.PageOutOfBounds, "page %d does not exist (file has %d pages)", pageNum, f.numPages.Load())
	}
	offset := int64(pageNum) * int64(common.PageSize)
	if _, err := f.file.ReadAt(frame, offset); err != nil {
		return common.WrapIoError(err, "read page %d", pageNum)
	}
	return nil
}

// WritePage writes frame to page pageNum, extending the file by
// exactly one page if pageNum is one past the current end.
func (f *DiskDBFile) WritePage(pageNum int, frame []byte) error {
	common.Assert(len(frame) == common.PageSize, "frame must be exactly PageSize bytes")
	if pageNum < 0 {
		return common.NewError(common.PageOutOfBounds, "negative page number %d", pageNum)
	}

	if int32(pageNum) == f.numPages.Load() {
		if err := f.extend(pageNum); err != nil {
			return err
		}
	} else if int32(pageNum) > f.numPages.Load() {
		return common.NewError(common.PageOutOfBounds, "page %d is more than one past end (numPages=%d)", pageNum, f.numPages.Load())
	}

	offset := int64(pageNum) * int64(common.PageSize)
	if _, err := f.file.WriteAt(frame, offset); err != nil {
		return common.WrapIoError(err, "write page %d", pageNum)
	}
	return nil
}

func (f *DiskDBFile) extend(pageNum int) error {
	f.extendMu.Lock()
	defer f.extendMu.Unlock()
	if int32(pageNum) != f.numPages.Load() {
		// another writer already extended past us; nothing to do
		return nil
	}
	newSize := int64(pageNum+1) * int64(common.PageSize)
	if err := f.file.Truncate(newSize); err != nil {
		return common.WrapIoError(err, "extend file to %d pages", pageNum+1)
	}
	f.numPages.Store(int32(pageNum + 1))
	return nil
}

// Sync flushes writes to stable storage.
func (f *DiskDBFile) Sync() error {
	if err := f.file.Sync(); err != nil {
		return common.WrapIoError(err, "sync db file")
	}
	return nil
}

// Close closes the underlying OS file.
func (f *DiskDBFile) Close() error {
	return f.file.Close()
}

// NumPages returns the number of pages currently in the file.
func (f *DiskDBFile) NumPages() (int, error) {
	return int(f.numPages.Load()), nil
}

// DiskFileManager opens and caches one DiskDBFile per table, rooted at
// a single data directory. It ensures only one DBFile instance exists
// per physical file regardless of how many callers ask for it.
type DiskFileManager struct {
	rootPath string
	cache    *xsync.MapOf[common.TableID, DBFile]
}

// NewDiskFileManager creates a manager rooted at rootPath. rootPath
// must already exist.
func NewDiskFileManager(rootPath string) *DiskFileManager {
	return &DiskFileManager{
		rootPath: rootPath,
		cache:    xsync.NewMapOf[common.TableID, DBFile](),
	}
}

// Open returns the cached DBFile for id, opening (and creating, if
// absent) fileName under the manager's root directory on first call.
func (m *DiskFileManager) Open(id common.TableID, fileName string) (DBFile, error) {
	if f, ok := m.cache.Load(id); ok {
		return f, nil
	}

	path := filepath.Join(m.rootPath, fileName)
	osFile, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, common.WrapIoError(err, "open %s", path)
	}
	dbFile, err := NewDiskDBFile(osFile)
	if err != nil {
		_ = osFile.Close()
		return nil, err
	}

	actual, loaded := m.cache.LoadOrStore(id, dbFile)
	if loaded {
		_ = dbFile.Close()
		return actual, nil
	}
	return dbFile, nil
}

// Close closes and evicts the cached DBFile for id, if any.
func (m *DiskFileManager) Close(id common.TableID) error {
	f, loaded := m.cache.LoadAndDelete(id)
	if !loaded {
		return nil
	}
	return f.Close()
}
