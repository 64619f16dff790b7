package execution

import (
	"fmt"

	"github.com/yale-db/godb-core/common"
	"github.com/yale-db/godb-core/storage"
)

// AggOp names a supported aggregate function.
type AggOp int

const (
	AggCount AggOp = iota
	AggSum
	AggAvg
	AggMin
	AggMax
)

func (op AggOp) resultName(field string) string {
	switch op {
	case AggCount:
		return "count"
	case AggSum:
		return "sum_" + field
	case AggAvg:
		return "avg_" + field
	case AggMin:
		return "min_" + field
	case AggMax:
		return "max_" + field
	}
	return "agg"
}

func fieldIndex(desc *storage.TupleDesc, name string) (int, error) {
	for i := 0; i < desc.NumFields(); i++ {
		if desc.FieldName(i) == name {
			return i, nil
		}
	}
	return -1, common.NewError(common.SchemaMismatch, "no field named %q", name)
}

type aggAccumulator struct {
	count      int64
	sum        int64
	min, max   common.Value
	haveMinMax bool
}

// Aggregate computes COUNT, SUM, AVG, MIN, or MAX over its child,
// optionally grouped by one field. Because the result for any group
// cannot be known until the whole child has been read, the first pull
// drains the child entirely; later pulls just walk the computed
// result rows.
type Aggregate struct {
	child         Operator
	op            AggOp
	aggFieldIdx   int // -1 for COUNT(*)
	groupFieldIdx int // -1 for no GROUP BY
	desc          *storage.TupleDesc

	computed bool
	results  []*storage.Tuple
	pos      int
}

// NewAggregate builds an aggregate of op over aggField (pass "" for
// COUNT(*)), optionally grouped by groupField (pass "" for none).
func NewAggregate(child Operator, op AggOp, aggField string, groupField string) (*Aggregate, error) {
	childDesc := child.GetTupleDesc()

	aggIdx := -1
	resultType := common.IntType
	if aggField != "" {
		idx, err := fieldIndex(childDesc, aggField)
		if err != nil {
			return nil, err
		}
		aggIdx = idx
		if op == AggMin || op == AggMax {
			resultType = childDesc.FieldType(idx)
		}
	} else if op != AggCount {
		return nil, common.NewError(common.SchemaMismatch, fmt.Sprintf("aggregate %d requires a field", op))
	}

	groupIdx := -1
	var fields []storage.FieldDesc
	if groupField != "" {
		idx, err := fieldIndex(childDesc, groupField)
		if err != nil {
			return nil, err
		}
		groupIdx = idx
		fields = append(fields, storage.FieldDesc{Type: childDesc.FieldType(idx), Name: groupField})
	}
	fields = append(fields, storage.FieldDesc{Type: resultType, Name: op.resultName(aggField)})

	return &Aggregate{
		child:         child,
		op:            op,
		aggFieldIdx:   aggIdx,
		groupFieldIdx: groupIdx,
		desc:          storage.NewTupleDesc(fields),
	}, nil
}

func (a *Aggregate) GetTupleDesc() *storage.TupleDesc {
	return a.desc
}

func (a *Aggregate) Open(tid common.TransactionID) error {
	a.computed = false
	a.results = nil
	a.pos = 0
	return a.child.Open(tid)
}

func (a *Aggregate) computeAll() error {
	if a.computed {
		return nil
	}
	a.computed = true

	groups := make(map[common.Value]*aggAccumulator)
	var order []common.Value
	ungrouped := common.NewIntValue(0)

	for {
		has, err := a.child.HasNext()
		if err != nil {
			return err
		}
		if !has {
			break
		}
		t, err := a.child.Next()
		if err != nil {
			return err
		}

		key := ungrouped
		if a.groupFieldIdx >= 0 {
			key = t.Values[a.groupFieldIdx]
		}
		acc, ok := groups[key]
		if !ok {
			acc = &aggAccumulator{}
			groups[key] = acc
			order = append(order, key)
		}
		acc.count++
		if a.aggFieldIdx >= 0 {
			v := t.Values[a.aggFieldIdx]
			if v.Type() == common.IntType {
				acc.sum += int64(v.IntValue())
			}
			if !acc.haveMinMax || v.Compare(acc.min) < 0 {
				acc.min = v
			}
			if !acc.haveMinMax || v.Compare(acc.max) > 0 {
				acc.max = v
			}
			acc.haveMinMax = true
		}
	}

	a.results = make([]*storage.Tuple, 0, len(order))
	for _, key := range order {
		acc := groups[key]
		values := make([]common.Value, 0, 2)
		if a.groupFieldIdx >= 0 {
			values = append(values, key)
		}
		values = append(values, a.resultValue(acc))
		tup, err := storage.NewTuple(a.desc, values)
		if err != nil {
			return err
		}
		a.results = append(a.results, tup)
	}
	return nil
}

func (a *Aggregate) resultValue(acc *aggAccumulator) common.Value {
	switch a.op {
	case AggCount:
		return common.NewIntValue(int32(acc.count))
	case AggSum:
		return common.NewIntValue(int32(acc.sum))
	case AggAvg:
		if acc.count == 0 {
			return common.NewIntValue(0)
		}
		return common.NewIntValue(int32(acc.sum / acc.count))
	case AggMin:
		return acc.min
	case AggMax:
		return acc.max
	}
	panic("unreachable aggregate op")
}

func (a *Aggregate) HasNext() (bool, error) {
	if err := a.computeAll(); err != nil {
		return false, err
	}
	return a.pos < len(a.results), nil
}

func (a *Aggregate) Next() (*storage.Tuple, error) {
	if err := a.computeAll(); err != nil {
		return nil, err
	}
	if a.pos >= len(a.results) {
		return nil, common.NewError(common.SlotEmpty, "aggregate exhausted")
	}
	t := a.results[a.pos]
	a.pos++
	return t, nil
}

// Rewind resets to the first result row without rescanning the child:
// the computed groups are already final.
func (a *Aggregate) Rewind() error {
	a.pos = 0
	return nil
}

func (a *Aggregate) Close() error {
	return a.child.Close()
}
