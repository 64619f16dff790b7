package storage

import (
	"sync"

	"github.com/yale-db/godb-core/common"
)

// HeapFile is a table's on-disk heap: a DBFile interpreted as a
// sequence of HeapPages, all sharing one TupleDesc. Reads and writes
// that need caching or locking go through the BufferPool; HeapFile
// itself only does raw page I/O and the insert/delete/iterate
// algorithms built on top of it.
type HeapFile struct {
	id   common.TableID
	desc *TupleDesc
	file DBFile
	bp   *BufferPool

	// extendMu is the file-scoped monitor guarding the "allocate a
	// fresh page past end of file" path, so two concurrent inserters
	// racing to grow the file never claim the same page number.
	extendMu sync.Mutex
}

// NewHeapFile wraps file (already open) as a heap of desc-shaped
// tuples, identified by id. bp is the buffer pool this file's pages
// are cached and locked through.
func NewHeapFile(id common.TableID, desc *TupleDesc, file DBFile, bp *BufferPool) *HeapFile {
	return &HeapFile{id: id, desc: desc, file: file, bp: bp}
}

// ID returns the table id this heap file belongs to.
func (hf *HeapFile) ID() common.TableID {
	return hf.id
}

// Desc returns the tuple descriptor shared by every page in the file.
func (hf *HeapFile) Desc() *TupleDesc {
	return hf.desc
}

// NumPages returns the file's current page count.
func (hf *HeapFile) NumPages() (int, error) {
	return hf.file.NumPages()
}

// readPageFromDisk decodes page pageNum directly from the underlying
// file, bypassing the buffer pool's cache. Called by the buffer pool
// on a cache miss.
func (hf *HeapFile) readPageFromDisk(pageNum int) (*HeapPage, error) {
	n, err := hf.file.NumPages()
	if err != nil {
		return nil, err
	}
	if pageNum < 0 || pageNum >= n {
		return nil, common.NewError(common.PageOutOfBounds, "page %d out of bounds (numPages=%d)", pageNum, n)
	}
	data := make([]byte, common.PageSize)
	if err := hf.file.ReadPage(pageNum, data); err != nil {
		return nil, err
	}
	return NewHeapPage(common.PageID{TableID: hf.id, PageNum: int32(pageNum)}, hf.desc, data)
}

// writePageToDisk flushes a single page's bytes directly to the
// underlying file. Called by the buffer pool when flushing a dirty page.
func (hf *HeapFile) writePageToDisk(page *HeapPage) error {
	pid := page.ID()
	if pid.TableID != hf.id {
		return common.NewError(common.WrongTable, "page %s does not belong to table %d", pid, hf.id)
	}
	return hf.file.WritePage(int(pid.PageNum), page.Serialize())
}

func isErrCode(err error, code common.GoDBErrorCode) bool {
	ge, ok := err.(common.GoDBError)
	return ok && ge.Code == code
}

// InsertTuple scans pages 0..numPages-1 in ascending order for the
// first with an empty slot, requesting READ_WRITE on each through the
// buffer pool. If none has room, it extends the file by one fresh
// page (serialized against other concurrent extenders) and inserts
// there. Returns the single page that was dirtied.
func (hf *HeapFile) InsertTuple(tid common.TransactionID, t *Tuple) ([]common.PageID, error) {
	numPages, err := hf.file.NumPages()
	if err != nil {
		return nil, err
	}

	for pageNum := 0; pageNum < numPages; pageNum++ {
		pid := common.PageID{TableID: hf.id, PageNum: int32(pageNum)}
		page, err := hf.bp.GetPage(tid, pid, ReadWrite)
		if err != nil {
			return nil, err
		}
		if err := page.InsertTuple(t); err != nil {
			if isErrCode(err, common.PageFull) {
				continue
			}
			return nil, err
		}
		return []common.PageID{pid}, nil
	}

	hf.extendMu.Lock()
	defer hf.extendMu.Unlock()

	newPageNum, err := hf.file.NumPages()
	if err != nil {
		return nil, err
	}
	if err := hf.file.WritePage(newPageNum, CreateEmptyPageData()); err != nil {
		return nil, err
	}
	pid := common.PageID{TableID: hf.id, PageNum: int32(newPageNum)}
	page, err := hf.bp.GetPage(tid, pid, ReadWrite)
	if err != nil {
		return nil, err
	}
	if err := page.InsertTuple(t); err != nil {
		return nil, err
	}
	return []common.PageID{pid}, nil
}

// DeleteTuple fetches the page named by t's record id with READ_WRITE
// and clears its slot, returning the page that was dirtied.
func (hf *HeapFile) DeleteTuple(tid common.TransactionID, t *Tuple) (common.PageID, error) {
	rid := t.RecordID()
	page, err := hf.bp.GetPage(tid, rid.PageID, ReadWrite)
	if err != nil {
		return common.PageID{}, err
	}
	if err := page.DeleteTuple(t); err != nil {
		return common.PageID{}, err
	}
	return rid.PageID, nil
}

// HeapFileIterator walks every tuple in a heap file, page by page, in
// ascending page-then-slot order. Each page is fetched through the
// buffer pool with READ_ONLY.
type HeapFileIterator struct {
	hf      *HeapFile
	tid     common.TransactionID
	pageNum int
	pageIt  *HeapPageIterator
}

// Iterate returns an iterator over every tuple in the file, positioned
// before page 0.
func (hf *HeapFile) Iterate(tid common.TransactionID) *HeapFileIterator {
	return &HeapFileIterator{hf: hf, tid: tid}
}

// Rewind resets the iterator to page 0.
func (it *HeapFileIterator) Rewind() {
	it.pageNum = 0
	it.pageIt = nil
}

// HasNext reports whether another tuple remains.
func (it *HeapFileIterator) HasNext() (bool, error) {
	for {
		if it.pageIt != nil && it.pageIt.HasNext() {
			return true, nil
		}
		n, err := it.hf.file.NumPages()
		if err != nil {
			return false, err
		}
		if it.pageNum >= n {
			return false, nil
		}
		pid := common.PageID{TableID: it.hf.id, PageNum: int32(it.pageNum)}
		page, err := it.hf.bp.GetPage(it.tid, pid, ReadOnly)
		if err != nil {
			return false, err
		}
		it.pageIt = page.Iterate()
		it.pageNum++
	}
}

// Next returns the next tuple in the file.
func (it *HeapFileIterator) Next() (*Tuple, error) {
	ok, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.NewError(common.SlotEmpty, "heap file iterator exhausted")
	}
	return it.pageIt.Next()
}
