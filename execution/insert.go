package execution

import (
	"github.com/yale-db/godb-core/common"
	"github.com/yale-db/godb-core/storage"
)

// Insert drains source, inserting every tuple it produces into
// tableID, and yields a single one-field tuple holding the count of
// rows inserted.
type Insert struct {
	source  Operator
	bp      *storage.BufferPool
	tableID common.TableID

	tid    common.TransactionID
	result *storage.Tuple
	read   bool
}

// NewInsert creates an insert of source's output into tableID via bp.
func NewInsert(source Operator, bp *storage.BufferPool, tableID common.TableID) *Insert {
	return &Insert{source: source, bp: bp, tableID: tableID}
}

func (ins *Insert) GetTupleDesc() *storage.TupleDesc {
	return countDesc
}

func (ins *Insert) Open(tid common.TransactionID) error {
	ins.tid = tid
	ins.result = nil
	ins.read = false
	return ins.source.Open(tid)
}

func (ins *Insert) run() error {
	if ins.result != nil {
		return nil
	}
	var count int32
	for {
		has, err := ins.source.HasNext()
		if err != nil {
			return err
		}
		if !has {
			break
		}
		t, err := ins.source.Next()
		if err != nil {
			return err
		}
		if err := ins.bp.InsertTuple(ins.tid, ins.tableID, t); err != nil {
			return err
		}
		count++
	}
	tup, err := storage.NewTuple(countDesc, []common.Value{common.NewIntValue(count)})
	if err != nil {
		return err
	}
	ins.result = tup
	return nil
}

func (ins *Insert) HasNext() (bool, error) {
	if err := ins.run(); err != nil {
		return false, err
	}
	return !ins.read, nil
}

func (ins *Insert) Next() (*storage.Tuple, error) {
	if err := ins.run(); err != nil {
		return nil, err
	}
	if ins.read {
		return nil, common.NewError(common.SlotEmpty, "insert result already consumed")
	}
	ins.read = true
	return ins.result, nil
}

// Rewind makes the single count tuple readable again without
// re-running the inserts.
func (ins *Insert) Rewind() error {
	ins.read = false
	return nil
}

func (ins *Insert) Close() error {
	return ins.source.Close()
}
