package execution

import (
	"github.com/yale-db/godb-core/common"
	"github.com/yale-db/godb-core/storage"
)

// SeqScan pulls every tuple of a heap file in page, then slot, order.
type SeqScan struct {
	heapFile *storage.HeapFile
	tid      common.TransactionID
	it       *storage.HeapFileIterator
}

// NewSeqScan creates a scan over heapFile. Open must be called before
// pulling tuples.
func NewSeqScan(heapFile *storage.HeapFile) *SeqScan {
	return &SeqScan{heapFile: heapFile}
}

func (s *SeqScan) GetTupleDesc() *storage.TupleDesc {
	return s.heapFile.Desc()
}

func (s *SeqScan) Open(tid common.TransactionID) error {
	s.tid = tid
	s.it = s.heapFile.Iterate(tid)
	return nil
}

func (s *SeqScan) HasNext() (bool, error) {
	common.Assert(s.it != nil, "SeqScan.Open must be called before HasNext")
	return s.it.HasNext()
}

func (s *SeqScan) Next() (*storage.Tuple, error) {
	common.Assert(s.it != nil, "SeqScan.Open must be called before Next")
	return s.it.Next()
}

func (s *SeqScan) Rewind() error {
	common.Assert(s.it != nil, "SeqScan.Open must be called before Rewind")
	s.it.Rewind()
	return nil
}

func (s *SeqScan) Close() error {
	s.it = nil
	return nil
}
