package execution

import (
	"github.com/yale-db/godb-core/common"
	"github.com/yale-db/godb-core/storage"
)

// Operator is the pull-based interface every query-plan node
// implements. The core exposes nothing else to operators beyond
// Open/HasNext/Next/Rewind/Close and the buffer pool calls they make
// internally (GetPage, InsertTuple, DeleteTuple, a heap-file iterator).
type Operator interface {
	// Open binds the operator to tid and prepares it to be pulled from.
	Open(tid common.TransactionID) error
	// HasNext reports whether Next would return another tuple.
	HasNext() (bool, error)
	// Next returns the next tuple. Only valid after HasNext returns true.
	Next() (*storage.Tuple, error)
	// Rewind resets the operator to its state just after Open.
	Rewind() error
	// Close releases any resources the operator holds.
	Close() error
	// GetTupleDesc returns the schema of tuples this operator produces.
	GetTupleDesc() *storage.TupleDesc
}

// countDesc is the one-field (int) schema shared by Insert and Delete
// result tuples.
var countDesc = storage.NewTupleDesc([]storage.FieldDesc{{Type: common.IntType, Name: "count"}})
