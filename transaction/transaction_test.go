package transaction

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yale-db/godb-core/common"
)

func TestIDGeneratorNeverIssuesInvalidID(t *testing.T) {
	gen := NewIDGenerator()
	for i := 0; i < 5; i++ {
		assert.NotEqual(t, common.InvalidTransactionID, gen.NextTransactionID())
	}
}

func TestIDGeneratorIDsAreUnique(t *testing.T) {
	gen := NewIDGenerator()
	seen := make(map[common.TransactionID]bool)
	for i := 0; i < 1000; i++ {
		id := gen.NextTransactionID()
		assert.False(t, seen[id], "transaction id %d minted twice", id)
		seen[id] = true
	}
}

func TestIDGeneratorConcurrentMintingIsUnique(t *testing.T) {
	gen := NewIDGenerator()
	const n = 200
	ids := make([]common.TransactionID, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = gen.NextTransactionID()
		}(i)
	}
	wg.Wait()

	seen := make(map[common.TransactionID]bool, n)
	for _, id := range ids {
		assert.False(t, seen[id], "concurrent minting produced a duplicate id")
		seen[id] = true
	}
}
