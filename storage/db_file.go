package storage

// DBFile abstracts the physical file backing a single table's heap. It
// handles page-level reads and writes; the heap file built on top of
// it owns slot-level semantics.
//
// Implementations must be safe for concurrent use: multiple goroutines
// may ReadPage/WritePage distinct page numbers simultaneously.
type DBFile interface {
	// ReadPage reads the page identified by pageNum into frame, which
	// must be exactly common.PageSize bytes. Fails with
	// PageOutOfBounds if pageNum is negative or >= NumPages().
	ReadPage(pageNum int, frame []byte) error
	// WritePage writes frame (exactly common.PageSize bytes) to the
	// page identified by pageNum. If pageNum equals the current
	// NumPages(), the file is extended by one page first. Fails with
	// PageOutOfBounds if pageNum is negative or more than one past the
	// current end.
	WritePage(pageNum int, frame []byte) error
	// NumPages returns ceil(file length / common.PageSize).
	NumPages() (int, error)
	// Sync forces buffered writes to stable storage.
	Sync() error
	// Close releases the underlying file handle.
	Close() error
}
