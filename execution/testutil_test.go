package execution

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yale-db/godb-core/catalog"
	"github.com/yale-db/godb-core/common"
	"github.com/yale-db/godb-core/storage"
	"github.com/yale-db/godb-core/transaction"
)

// sliceOperator is an in-memory Operator over a fixed slice of tuples,
// used to feed the other operators in tests without needing a real
// heap file underneath.
type sliceOperator struct {
	desc   *storage.TupleDesc
	tuples []*storage.Tuple
	pos    int
}

func newSliceOperator(desc *storage.TupleDesc, tuples []*storage.Tuple) *sliceOperator {
	return &sliceOperator{desc: desc, tuples: tuples}
}

func (s *sliceOperator) GetTupleDesc() *storage.TupleDesc { return s.desc }
func (s *sliceOperator) Open(common.TransactionID) error  { s.pos = 0; return nil }
func (s *sliceOperator) HasNext() (bool, error)            { return s.pos < len(s.tuples), nil }
func (s *sliceOperator) Next() (*storage.Tuple, error) {
	t := s.tuples[s.pos]
	s.pos++
	return t, nil
}
func (s *sliceOperator) Rewind() error { s.pos = 0; return nil }
func (s *sliceOperator) Close() error  { return nil }

func intStrDesc() *storage.TupleDesc {
	return storage.NewTupleDesc([]storage.FieldDesc{
		{Type: common.IntType, Name: "id"},
		{Type: common.StringType, Name: "name"},
	})
}

func mustTuple(t *testing.T, desc *storage.TupleDesc, values ...common.Value) *storage.Tuple {
	t.Helper()
	tup, err := storage.NewTuple(desc, values)
	require.NoError(t, err)
	return tup
}

// testDB wires a minimal catalog/buffer-pool/lock-manager triple
// around a single table, rooted in a fresh temp directory.
type testDB struct {
	cat     *catalog.Catalog
	bp      *storage.BufferPool
	lockMgr *transaction.LockManager
	hf      *storage.HeapFile
}

func newTestDB(t *testing.T, desc *storage.TupleDesc) *testDB {
	t.Helper()
	dir := t.TempDir()

	cat := catalog.NewCatalog()
	lockMgr := transaction.NewLockManager()
	bp := storage.NewBufferPool(10, cat, lockMgr)

	osFile, err := os.OpenFile(filepath.Join(dir, "t.dat"), os.O_RDWR|os.O_CREATE, 0666)
	require.NoError(t, err)
	dbFile, err := storage.NewDiskDBFile(osFile)
	require.NoError(t, err)

	hf := storage.NewHeapFile(1, desc, dbFile, bp)
	require.NoError(t, cat.AddTable(hf.ID(), "t", desc, "", hf))

	return &testDB{cat: cat, bp: bp, lockMgr: lockMgr, hf: hf}
}
