package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yale-db/godb-core/common"
	"github.com/yale-db/godb-core/storage"
)

func equalOnFirstField(left, right *storage.Tuple) (bool, error) {
	return left.Values[0].Equals(right.Values[0]), nil
}

func TestJoinMatchesAcrossBlocks(t *testing.T) {
	leftDesc := storage.NewTupleDesc([]storage.FieldDesc{{Type: common.IntType, Name: "id"}})
	rightDesc := storage.NewTupleDesc([]storage.FieldDesc{{Type: common.IntType, Name: "fk"}, {Type: common.StringType, Name: "label"}})

	var leftTuples []*storage.Tuple
	for i := 0; i < 5; i++ {
		leftTuples = append(leftTuples, mustTuple(t, leftDesc, common.NewIntValue(int32(i))))
	}
	rightTuples := []*storage.Tuple{
		mustTuple(t, rightDesc, common.NewIntValue(1), common.NewStringValue("one")),
		mustTuple(t, rightDesc, common.NewIntValue(3), common.NewStringValue("three")),
		mustTuple(t, rightDesc, common.NewIntValue(3), common.NewStringValue("three-again")),
	}

	left := newSliceOperator(leftDesc, leftTuples)
	right := newSliceOperator(rightDesc, rightTuples)
	// small block size forces multiple block-load cycles over 5 left rows.
	join := NewJoin(left, right, equalOnFirstField, 2)

	require.NoError(t, join.Open(1))
	var labels []string
	for {
		has, err := join.HasNext()
		require.NoError(t, err)
		if !has {
			break
		}
		tup, err := join.Next()
		require.NoError(t, err)
		labels = append(labels, tup.Values[2].StringValue())
	}
	assert.ElementsMatch(t, []string{"one", "three", "three-again"}, labels)
}

func TestJoinTupleDescIsConcatenation(t *testing.T) {
	leftDesc := storage.NewTupleDesc([]storage.FieldDesc{{Type: common.IntType, Name: "a"}})
	rightDesc := storage.NewTupleDesc([]storage.FieldDesc{{Type: common.StringType, Name: "b"}})
	left := newSliceOperator(leftDesc, nil)
	right := newSliceOperator(rightDesc, nil)

	join := NewJoin(left, right, equalOnFirstField, 0)
	desc := join.GetTupleDesc()
	require.Equal(t, 2, desc.NumFields())
	assert.Equal(t, common.IntType, desc.FieldType(0))
	assert.Equal(t, common.StringType, desc.FieldType(1))
}

func TestJoinEmptySideYieldsNothing(t *testing.T) {
	leftDesc := storage.NewTupleDesc([]storage.FieldDesc{{Type: common.IntType}})
	rightDesc := storage.NewTupleDesc([]storage.FieldDesc{{Type: common.IntType}})
	left := newSliceOperator(leftDesc, nil)
	right := newSliceOperator(rightDesc, []*storage.Tuple{mustTuple(t, rightDesc, common.NewIntValue(1))})

	join := NewJoin(left, right, equalOnFirstField, 0)
	require.NoError(t, join.Open(1))
	has, err := join.HasNext()
	require.NoError(t, err)
	assert.False(t, has)
}

func TestJoinRewindReplaysMatches(t *testing.T) {
	leftDesc := storage.NewTupleDesc([]storage.FieldDesc{{Type: common.IntType}})
	rightDesc := storage.NewTupleDesc([]storage.FieldDesc{{Type: common.IntType}})
	left := newSliceOperator(leftDesc, []*storage.Tuple{mustTuple(t, leftDesc, common.NewIntValue(1))})
	right := newSliceOperator(rightDesc, []*storage.Tuple{mustTuple(t, rightDesc, common.NewIntValue(1))})

	join := NewJoin(left, right, equalOnFirstField, 0)
	require.NoError(t, join.Open(1))

	has, err := join.HasNext()
	require.NoError(t, err)
	require.True(t, has)
	_, err = join.Next()
	require.NoError(t, err)

	has, err = join.HasNext()
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, join.Rewind())
	has, err = join.HasNext()
	require.NoError(t, err)
	assert.True(t, has, "rewind should replay the same match")
}
