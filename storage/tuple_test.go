package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yale-db/godb-core/common"
)

func sampleDesc() *TupleDesc {
	return NewTupleDesc([]FieldDesc{
		{Type: common.IntType, Name: "id"},
		{Type: common.StringType, Name: "name"},
	})
}

func TestTupleDescEquals(t *testing.T) {
	a := sampleDesc()
	b := NewTupleDesc([]FieldDesc{{Type: common.IntType}, {Type: common.StringType}})
	assert.True(t, a.Equals(b), "descriptors with matching field types should be equal regardless of names")

	c := NewTupleDesc([]FieldDesc{{Type: common.StringType}, {Type: common.IntType}})
	assert.False(t, a.Equals(c))
}

func TestTupleDescMerge(t *testing.T) {
	left := NewTupleDesc([]FieldDesc{{Type: common.IntType, Name: "a"}})
	right := NewTupleDesc([]FieldDesc{{Type: common.StringType, Name: "b"}})
	merged := left.Merge(right)

	require.Equal(t, 2, merged.NumFields())
	assert.Equal(t, common.IntType, merged.FieldType(0))
	assert.Equal(t, common.StringType, merged.FieldType(1))
	assert.Equal(t, "a", merged.FieldName(0))
	assert.Equal(t, "b", merged.FieldName(1))
}

func TestTupleDescSize(t *testing.T) {
	desc := sampleDesc()
	assert.Equal(t, common.IntType.Size()+common.StringType.Size(), desc.Size())
}

func TestNewTupleRejectsSchemaMismatch(t *testing.T) {
	desc := sampleDesc()

	_, err := NewTuple(desc, []common.Value{common.NewIntValue(1)})
	require.Error(t, err)
	assert.Equal(t, common.SchemaMismatch, err.(common.GoDBError).Code)

	_, err = NewTuple(desc, []common.Value{common.NewStringValue("x"), common.NewIntValue(1)})
	require.Error(t, err)
	assert.Equal(t, common.SchemaMismatch, err.(common.GoDBError).Code)
}

func TestTupleWriteAndReadRoundTrip(t *testing.T) {
	desc := sampleDesc()
	tup, err := NewTuple(desc, []common.Value{common.NewIntValue(42), common.NewStringValue("world")})
	require.NoError(t, err)

	buf := make([]byte, desc.Size())
	tup.WriteTo(buf)

	rid := common.RecordID{PageID: common.PageID{TableID: 1, PageNum: 3}, Slot: 2}
	readBack := ReadTuple(desc, buf, rid)

	assert.True(t, tup.Equals(readBack), "round-tripped tuple should compare equal by value")
	assert.Equal(t, rid, readBack.RecordID())
	assert.Equal(t, int32(42), readBack.Values[0].IntValue())
	assert.Equal(t, "world", readBack.Values[1].StringValue())
}

func TestTupleRecordIDUnsetUntilInserted(t *testing.T) {
	desc := sampleDesc()
	tup, err := NewTuple(desc, []common.Value{common.NewIntValue(1), common.NewStringValue("a")})
	require.NoError(t, err)
	assert.True(t, tup.RecordID().IsNil())

	tup.SetRecordID(common.RecordID{PageID: common.PageID{TableID: 7, PageNum: 0}, Slot: 4})
	assert.False(t, tup.RecordID().IsNil())
	assert.Equal(t, int32(4), tup.RecordID().Slot)
}

func TestTupleEqualsIgnoresRecordID(t *testing.T) {
	desc := sampleDesc()
	a, _ := NewTuple(desc, []common.Value{common.NewIntValue(5), common.NewStringValue("x")})
	b, _ := NewTuple(desc, []common.Value{common.NewIntValue(5), common.NewStringValue("x")})
	b.SetRecordID(common.RecordID{PageID: common.PageID{TableID: 1}, Slot: 9})

	assert.True(t, a.Equals(b))

	c, _ := NewTuple(desc, []common.Value{common.NewIntValue(6), common.NewStringValue("x")})
	assert.False(t, a.Equals(c))
}
