package transaction

import (
	"sync/atomic"

	"github.com/yale-db/godb-core/common"
)

// IDGenerator mints unique, monotonically increasing transaction ids.
// A transaction begins implicitly at its first lock request; the
// generator only hands out the identifier used to tag that request.
type IDGenerator struct {
	next atomic.Uint64
}

// NewIDGenerator creates a generator whose first minted id is 1
// (InvalidTransactionID is reserved for the zero value).
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// NextTransactionID mints and returns the next unused transaction id.
func (g *IDGenerator) NextTransactionID() common.TransactionID {
	return common.TransactionID(g.next.Add(1))
}
