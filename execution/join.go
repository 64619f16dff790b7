package execution

import (
	"github.com/yale-db/godb-core/common"
	"github.com/yale-db/godb-core/storage"
)

// JoinPredicate decides whether a pair of tuples, one from each side
// of a Join, match.
type JoinPredicate func(left, right *storage.Tuple) (bool, error)

// defaultBlockSize is the number of left-side tuples materialized per
// pass over the right child.
const defaultBlockSize = 128

// Join is a block-nested-loop join: it buffers a block of left tuples,
// then for each one scans the right child fully (rewinding between
// left tuples), emitting a merged tuple per match.
type Join struct {
	left, right Operator
	pred        JoinPredicate
	desc        *storage.TupleDesc
	blockSize   int

	leftBlock []*storage.Tuple
	blockPos  int
	buffered  *storage.Tuple
	done      bool
}

// NewJoin creates a block-nested-loop join of left and right under
// pred. blockSize <= 0 selects a sensible default.
func NewJoin(left, right Operator, pred JoinPredicate, blockSize int) *Join {
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}
	return &Join{
		left:      left,
		right:     right,
		pred:      pred,
		desc:      left.GetTupleDesc().Merge(right.GetTupleDesc()),
		blockSize: blockSize,
	}
}

func (j *Join) GetTupleDesc() *storage.TupleDesc {
	return j.desc
}

func (j *Join) Open(tid common.TransactionID) error {
	if err := j.left.Open(tid); err != nil {
		return err
	}
	if err := j.right.Open(tid); err != nil {
		return err
	}
	j.leftBlock = nil
	j.blockPos = 0
	j.buffered = nil
	j.done = false
	return j.loadNextBlock()
}

func (j *Join) loadNextBlock() error {
	j.leftBlock = j.leftBlock[:0]
	for len(j.leftBlock) < j.blockSize {
		has, err := j.left.HasNext()
		if err != nil {
			return err
		}
		if !has {
			break
		}
		t, err := j.left.Next()
		if err != nil {
			return err
		}
		j.leftBlock = append(j.leftBlock, t)
	}
	j.blockPos = 0
	return nil
}

func (j *Join) merge(left, right *storage.Tuple) (*storage.Tuple, error) {
	values := make([]common.Value, 0, len(left.Values)+len(right.Values))
	values = append(values, left.Values...)
	values = append(values, right.Values...)
	return storage.NewTuple(j.desc, values)
}

func (j *Join) fill() error {
	if j.buffered != nil || j.done {
		return nil
	}
	for {
		for j.blockPos < len(j.leftBlock) {
			left := j.leftBlock[j.blockPos]
			for {
				has, err := j.right.HasNext()
				if err != nil {
					return err
				}
				if !has {
					break
				}
				right, err := j.right.Next()
				if err != nil {
					return err
				}
				ok, err := j.pred(left, right)
				if err != nil {
					return err
				}
				if ok {
					merged, err := j.merge(left, right)
					if err != nil {
						return err
					}
					j.buffered = merged
					return nil
				}
			}
			j.blockPos++
			if err := j.right.Rewind(); err != nil {
				return err
			}
		}
		if err := j.loadNextBlock(); err != nil {
			return err
		}
		if len(j.leftBlock) == 0 {
			j.done = true
			return nil
		}
	}
}

func (j *Join) HasNext() (bool, error) {
	if err := j.fill(); err != nil {
		return false, err
	}
	return j.buffered != nil, nil
}

func (j *Join) Next() (*storage.Tuple, error) {
	if err := j.fill(); err != nil {
		return nil, err
	}
	if j.buffered == nil {
		return nil, common.NewError(common.SlotEmpty, "join exhausted")
	}
	t := j.buffered
	j.buffered = nil
	return t, nil
}

func (j *Join) Rewind() error {
	if err := j.left.Rewind(); err != nil {
		return err
	}
	if err := j.right.Rewind(); err != nil {
		return err
	}
	j.buffered = nil
	j.done = false
	return j.loadNextBlock()
}

func (j *Join) Close() error {
	if err := j.left.Close(); err != nil {
		return err
	}
	return j.right.Close()
}
