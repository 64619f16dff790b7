package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yale-db/godb-core/common"
	"github.com/yale-db/godb-core/storage"
)

func evensOnly(t *storage.Tuple) (bool, error) {
	return t.Values[0].IntValue()%2 == 0, nil
}

func TestFilterKeepsOnlyMatching(t *testing.T) {
	desc := intStrDesc()
	var tuples []*storage.Tuple
	for i := 0; i < 6; i++ {
		tuples = append(tuples, mustTuple(t, desc, common.NewIntValue(int32(i)), common.NewStringValue("x")))
	}
	src := newSliceOperator(desc, tuples)
	f := NewFilter(src, evensOnly)

	require.NoError(t, f.Open(1))
	var got []int32
	for {
		has, err := f.HasNext()
		require.NoError(t, err)
		if !has {
			break
		}
		tup, err := f.Next()
		require.NoError(t, err)
		got = append(got, tup.Values[0].IntValue())
	}
	assert.Equal(t, []int32{0, 2, 4}, got)
}

func TestFilterRewindReplaysFromStart(t *testing.T) {
	desc := intStrDesc()
	tuples := []*storage.Tuple{
		mustTuple(t, desc, common.NewIntValue(0), common.NewStringValue("x")),
		mustTuple(t, desc, common.NewIntValue(1), common.NewStringValue("x")),
		mustTuple(t, desc, common.NewIntValue(2), common.NewStringValue("x")),
	}
	src := newSliceOperator(desc, tuples)
	f := NewFilter(src, evensOnly)
	require.NoError(t, f.Open(1))

	has, err := f.HasNext()
	require.NoError(t, err)
	require.True(t, has)
	first, err := f.Next()
	require.NoError(t, err)
	assert.Equal(t, int32(0), first.Values[0].IntValue())

	require.NoError(t, f.Rewind())
	has, err = f.HasNext()
	require.NoError(t, err)
	require.True(t, has)
	again, err := f.Next()
	require.NoError(t, err)
	assert.Equal(t, int32(0), again.Values[0].IntValue())
}

func TestFilterExhaustedWhenNothingMatches(t *testing.T) {
	desc := intStrDesc()
	tuples := []*storage.Tuple{
		mustTuple(t, desc, common.NewIntValue(1), common.NewStringValue("x")),
		mustTuple(t, desc, common.NewIntValue(3), common.NewStringValue("x")),
	}
	src := newSliceOperator(desc, tuples)
	f := NewFilter(src, evensOnly)
	require.NoError(t, f.Open(1))

	has, err := f.HasNext()
	require.NoError(t, err)
	assert.False(t, has)

	_, err = f.Next()
	require.Error(t, err)
}
