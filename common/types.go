package common

import (
	"encoding/binary"
	"fmt"
)

// PageSize is the fixed width, in bytes, of every page in every heap
// file. It is only overridden by tests (see SetPageSizeForTesting).
var PageSize = 4096

// SetPageSizeForTesting overrides the page size for the duration of a
// test. It exists purely so tests can exercise slotted-page logic
// against small, easy-to-reason-about pages; production code never
// calls it.
func SetPageSizeForTesting(size int) {
	PageSize = size
}

// Type is a tagged field type: either a 32-bit signed integer or a
// fixed-length string of up to 128 bytes.
type Type int8

const (
	// IntType is a 4-byte little-endian signed integer.
	IntType Type = iota
	// StringType is a 4-byte little-endian length prefix followed by 128 bytes of UTF-8, zero-padded.
	StringType
)

// StringMaxLength is the maximum number of bytes a StringType field may hold.
const StringMaxLength = 128

// stringFieldSize is StringMaxLength plus the 4-byte length prefix.
const stringFieldSize = 4 + StringMaxLength

// Size returns the fixed on-disk width of the type, in bytes.
func (t Type) Size() int {
	switch t {
	case IntType:
		return 4
	case StringType:
		return stringFieldSize
	default:
		panic(fmt.Sprintf("unknown field type %d", t))
	}
}

func (t Type) String() string {
	switch t {
	case IntType:
		return "int"
	case StringType:
		return "string"
	}
	return "unknown"
}

// TableID is a process-stable identifier for a table, minted at
// catalog-insertion time. It is not guaranteed stable across processes.
type TableID uint32

// InvalidTableID is never assigned to a real table.
const InvalidTableID TableID = 0

// PageID identifies a page within a table's heap file. Identity is
// purely structural: two PageIDs are equal iff both fields match, so
// PageID is safe to use directly as a map key (e.g. in an
// xsync.MapOf[PageID, ...]).
type PageID struct {
	TableID TableID
	PageNum int32
}

func (p PageID) String() string {
	return fmt.Sprintf("Page(%d, %d)", p.TableID, p.PageNum)
}

// IsNil reports whether this PageID was never assigned a valid table.
func (p PageID) IsNil() bool {
	return p.TableID == InvalidTableID
}

// RecordID identifies a tuple's physical location: the page it lives
// on, plus its slot index within that page's slot array.
type RecordID struct {
	PageID
	Slot int32
}

func (r RecordID) String() string {
	return fmt.Sprintf("rid(%s, %d)", r.PageID, r.Slot)
}

// IsNil reports whether this RecordID refers to a valid page.
func (r RecordID) IsNil() bool {
	return r.PageID.IsNil()
}

// TransactionID is a unique, monotonically minted identifier for a
// transaction. Identity is by value.
type TransactionID uint64

// InvalidTransactionID is never assigned to a real transaction.
const InvalidTransactionID TransactionID = 0

// Value is a tagged field value: a 32-bit integer or a fixed-length string.
type Value struct {
	t      Type
	intVal int32
	strVal string
}

// NewIntValue creates an integer Value.
func NewIntValue(v int32) Value {
	return Value{t: IntType, intVal: v}
}

// NewStringValue creates a string Value. Panics if v exceeds StringMaxLength bytes.
func NewStringValue(v string) Value {
	if len(v) > StringMaxLength {
		panic(fmt.Sprintf("string value %q exceeds max length %d", v, StringMaxLength))
	}
	return Value{t: StringType, strVal: v}
}

// Type returns the value's field type.
func (v Value) Type() Type {
	return v.t
}

// IntValue returns the underlying integer. Panics if v is not an IntType.
func (v Value) IntValue() int32 {
	Assert(v.t == IntType, "type mismatch in IntValue: %s", v.t)
	return v.intVal
}

// StringValue returns the underlying string. Panics if v is not a StringType.
func (v Value) StringValue() string {
	Assert(v.t == StringType, "type mismatch in StringValue: %s", v.t)
	return v.strVal
}

// SizeInBytes returns the fixed on-disk width of the value's type.
func (v Value) SizeInBytes() int {
	return v.t.Size()
}

// WriteTo serializes the value into data in on-disk format. data must
// be at least v.SizeInBytes() bytes long.
func (v Value) WriteTo(data []byte) {
	Assert(len(data) >= v.SizeInBytes(), "buffer too small for %s", v.t)
	switch v.t {
	case IntType:
		binary.LittleEndian.PutUint32(data, uint32(v.intVal))
	case StringType:
		binary.LittleEndian.PutUint32(data, uint32(len(v.strVal)))
		n := copy(data[4:4+StringMaxLength], v.strVal)
		for i := 4 + n; i < stringFieldSize; i++ {
			data[i] = 0
		}
	}
}

// AsValue deserializes a value of type t from the front of source.
func AsValue(t Type, source []byte) Value {
	switch t {
	case IntType:
		return Value{t: IntType, intVal: int32(binary.LittleEndian.Uint32(source))}
	case StringType:
		length := binary.LittleEndian.Uint32(source)
		Assert(length <= StringMaxLength, "corrupt string length prefix %d", length)
		return Value{t: StringType, strVal: string(source[4 : 4+length])}
	default:
		panic(fmt.Sprintf("unknown field type %d", t))
	}
}

// Equals reports whether two values of the same type hold equal data.
func (v Value) Equals(other Value) bool {
	return v.Compare(other) == 0
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater
// than other. Both values must share the same Type.
func (v Value) Compare(other Value) int {
	Assert(v.t == other.t, "type mismatch in comparison: %s vs %s", v.t, other.t)
	switch v.t {
	case IntType:
		switch {
		case v.intVal < other.intVal:
			return -1
		case v.intVal > other.intVal:
			return 1
		default:
			return 0
		}
	case StringType:
		switch {
		case v.strVal < other.strVal:
			return -1
		case v.strVal > other.strVal:
			return 1
		default:
			return 0
		}
	}
	panic("unreachable")
}

func (v Value) String() string {
	switch v.t {
	case IntType:
		return fmt.Sprintf("%d", v.intVal)
	case StringType:
		return v.strVal
	}
	return "?"
}
