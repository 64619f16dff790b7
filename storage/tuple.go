package storage

import (
	"fmt"
	"strings"

	"github.com/yale-db/godb-core/common"
)

// FieldDesc names and types a single column of a TupleDesc.
type FieldDesc struct {
	Type common.Type
	Name string // optional; empty string means unnamed
}

// TupleDesc is an ordered, non-empty sequence of typed (and optionally
// named) fields. Two descriptors are equal when their field types
// match positionally; names never participate in equality.
type TupleDesc struct {
	fields []FieldDesc
}

// NewTupleDesc builds a TupleDesc from the given fields. Panics if
// fields is empty: a tuple descriptor always describes at least one column.
func NewTupleDesc(fields []FieldDesc) *TupleDesc {
	common.Assert(len(fields) > 0, "tuple descriptor must have at least one field")
	cp := make([]FieldDesc, len(fields))
	copy(cp, fields)
	return &TupleDesc{fields: cp}
}

// NumFields returns the number of columns.
func (d *TupleDesc) NumFields() int {
	return len(d.fields)
}

// FieldType returns the type of field i.
func (d *TupleDesc) FieldType(i int) common.Type {
	return d.fields[i].Type
}

// FieldName returns the name of field i, or "" if unnamed.
func (d *TupleDesc) FieldName(i int) string {
	return d.fields[i].Name
}

// Size returns the total on-disk width of a tuple matching this descriptor.
func (d *TupleDesc) Size() int {
	total := 0
	for _, f := range d.fields {
		total += f.Type.Size()
	}
	return total
}

// Equals reports whether two descriptors describe the same sequence
// of field types. Field names are ignored.
func (d *TupleDesc) Equals(other *TupleDesc) bool {
	if other == nil || len(d.fields) != len(other.fields) {
		return false
	}
	for i := range d.fields {
		if d.fields[i].Type != other.fields[i].Type {
			return false
		}
	}
	return true
}

// Merge returns a new descriptor whose fields are d's fields followed by other's fields.
func (d *TupleDesc) Merge(other *TupleDesc) *TupleDesc {
	combined := make([]FieldDesc, 0, len(d.fields)+len(other.fields))
	combined = append(combined, d.fields...)
	combined = append(combined, other.fields...)
	return NewTupleDesc(combined)
}

func (d *TupleDesc) String() string {
	parts := make([]string, len(d.fields))
	for i, f := range d.fields {
		if f.Name != "" {
			parts[i] = fmt.Sprintf("%s %s", f.Type, f.Name)
		} else {
			parts[i] = f.Type.String()
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Tuple is a row of field values matching a TupleDesc, plus the
// RecordID it was assigned when materialized on a page. A tuple not
// yet inserted anywhere has a nil (zero-value) RecordID.
type Tuple struct {
	Desc   *TupleDesc
	Values []common.Value
	rid    common.RecordID
}

// NewTuple builds a Tuple from values, validating that each value's
// type matches the corresponding field of desc.
func NewTuple(desc *TupleDesc, values []common.Value) (*Tuple, error) {
	if len(values) != desc.NumFields() {
		return nil, common.NewError(common.SchemaMismatch, "expected %d values, got %d", desc.NumFields(), len(values))
	}
	for i, v := range values {
		if v.Type() != desc.FieldType(i) {
			return nil, common.NewError(common.SchemaMismatch, "field %d: expected %s, got %s", i, desc.FieldType(i), v.Type())
		}
	}
	return &Tuple{Desc: desc, Values: values}, nil
}

// RecordID returns the tuple's physical location, or the zero RecordID if unmaterialized.
func (t *Tuple) RecordID() common.RecordID {
	return t.rid
}

// SetRecordID assigns the tuple's physical location. Called by HeapPage on insert.
func (t *Tuple) SetRecordID(rid common.RecordID) {
	t.rid = rid
}

// WriteTo serializes the tuple's values into data in field order. data
// must be at least t.Desc.Size() bytes long.
func (t *Tuple) WriteTo(data []byte) {
	offset := 0
	for i, v := range t.Values {
		v.WriteTo(data[offset:])
		offset += t.Desc.FieldType(i).Size()
	}
}

// ReadTuple decodes a tuple from data against desc, assigning it rid.
func ReadTuple(desc *TupleDesc, data []byte, rid common.RecordID) *Tuple {
	values := make([]common.Value, desc.NumFields())
	offset := 0
	for i := 0; i < desc.NumFields(); i++ {
		ft := desc.FieldType(i)
		values[i] = common.AsValue(ft, data[offset:])
		offset += ft.Size()
	}
	return &Tuple{Desc: desc, Values: values, rid: rid}
}

func (t *Tuple) String() string {
	parts := make([]string, len(t.Values))
	for i, v := range t.Values {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Equals compares two tuples by value, ignoring RecordID.
func (t *Tuple) Equals(other *Tuple) bool {
	if other == nil || len(t.Values) != len(other.Values) {
		return false
	}
	for i := range t.Values {
		if !t.Values[i].Equals(other.Values[i]) {
			return false
		}
	}
	return true
}
