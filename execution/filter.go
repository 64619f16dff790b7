package execution

import (
	"github.com/yale-db/godb-core/common"
	"github.com/yale-db/godb-core/storage"
)

// Predicate decides whether a tuple survives a Filter.
type Predicate func(*storage.Tuple) (bool, error)

// Filter yields only the tuples from its child that satisfy pred. It
// buffers exactly one tuple ahead, the minimum needed for a pull-based
// HasNext to be answerable without consuming Next's result.
type Filter struct {
	child     Operator
	pred      Predicate
	buffered  *storage.Tuple
	exhausted bool
}

// NewFilter wraps child, keeping only tuples for which pred returns true.
func NewFilter(child Operator, pred Predicate) *Filter {
	return &Filter{child: child, pred: pred}
}

func (f *Filter) GetTupleDesc() *storage.TupleDesc {
	return f.child.GetTupleDesc()
}

func (f *Filter) Open(tid common.TransactionID) error {
	f.buffered = nil
	f.exhausted = false
	return f.child.Open(tid)
}

func (f *Filter) fill() error {
	if f.buffered != nil || f.exhausted {
		return nil
	}
	for {
		has, err := f.child.HasNext()
		if err != nil {
			return err
		}
		if !has {
			f.exhausted = true
			return nil
		}
		t, err := f.child.Next()
		if err != nil {
			return err
		}
		ok, err := f.pred(t)
		if err != nil {
			return err
		}
		if ok {
			f.buffered = t
			return nil
		}
	}
}

func (f *Filter) HasNext() (bool, error) {
	if err := f.fill(); err != nil {
		return false, err
	}
	return f.buffered != nil, nil
}

func (f *Filter) Next() (*storage.Tuple, error) {
	if err := f.fill(); err != nil {
		return nil, err
	}
	if f.buffered == nil {
		return nil, common.NewError(common.SlotEmpty, "filter exhausted")
	}
	t := f.buffered
	f.buffered = nil
	return t, nil
}

func (f *Filter) Rewind() error {
	f.buffered = nil
	f.exhausted = false
	return f.child.Rewind()
}

func (f *Filter) Close() error {
	return f.child.Close()
}
