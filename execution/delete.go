package execution

import (
	"github.com/yale-db/godb-core/common"
	"github.com/yale-db/godb-core/storage"
)

// Delete drains source, deleting every tuple it produces (using each
// tuple's own RecordID), and yields a single one-field tuple holding
// the count of rows deleted.
type Delete struct {
	source Operator
	bp     *storage.BufferPool

	tid    common.TransactionID
	result *storage.Tuple
	read   bool
}

// NewDelete creates a delete of every tuple source produces, via bp.
func NewDelete(source Operator, bp *storage.BufferPool) *Delete {
	return &Delete{source: source, bp: bp}
}

func (del *Delete) GetTupleDesc() *storage.TupleDesc {
	return countDesc
}

func (del *Delete) Open(tid common.TransactionID) error {
	del.tid = tid
	del.result = nil
	del.read = false
	return del.source.Open(tid)
}

func (del *Delete) run() error {
	if del.result != nil {
		return nil
	}
	var count int32
	for {
		has, err := del.source.HasNext()
		if err != nil {
			return err
		}
		if !has {
			break
		}
		t, err := del.source.Next()
		if err != nil {
			return err
		}
		if err := del.bp.DeleteTuple(del.tid, t); err != nil {
			return err
		}
		count++
	}
	tup, err := storage.NewTuple(countDesc, []common.Value{common.NewIntValue(count)})
	if err != nil {
		return err
	}
	del.result = tup
	return nil
}

func (del *Delete) HasNext() (bool, error) {
	if err := del.run(); err != nil {
		return false, err
	}
	return !del.read, nil
}

func (del *Delete) Next() (*storage.Tuple, error) {
	if err := del.run(); err != nil {
		return nil, err
	}
	if del.read {
		return nil, common.NewError(common.SlotEmpty, "delete result already consumed")
	}
	del.read = true
	return del.result, nil
}

// Rewind makes the single count tuple readable again without
// re-running the deletes.
func (del *Delete) Rewind() error {
	del.read = false
	return nil
}

func (del *Delete) Close() error {
	return del.source.Close()
}
