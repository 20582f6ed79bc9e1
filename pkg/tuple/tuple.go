package tuple

import (
	"fmt"
	"strings"

	"coredb/pkg/types"
)

// Tuple is a schema plus a vector of field values of matching types, plus
// an optional RecordID once it has been stored on a page.
type Tuple struct {
	TupleDesc *TupleDescription
	fields    []types.Field
	RecordID  *RecordID
}

// NewTuple allocates a Tuple with all fields nil; SetField must be called
// for each field before the tuple is usable.
func NewTuple(td *TupleDescription) *Tuple {
	return &Tuple{
		TupleDesc: td,
		fields:    make([]types.Field, td.NumFields()),
	}
}

// SetField stores a field value, validating its index and type.
func (t *Tuple) SetField(i int, field types.Field) error {
	if i < 0 || i >= len(t.fields) {
		return fmt.Errorf("field index %d out of range [0,%d)", i, len(t.fields))
	}
	expected, err := t.TupleDesc.TypeAtIndex(i)
	if err != nil {
		return err
	}
	if field != nil && field.Type() != expected {
		return fmt.Errorf("field %d has type %s, expected %s", i, field.Type(), expected)
	}
	t.fields[i] = field
	return nil
}

// GetField returns the field at index i.
func (t *Tuple) GetField(i int) (types.Field, error) {
	if i < 0 || i >= len(t.fields) {
		return nil, fmt.Errorf("field index %d out of range [0,%d)", i, len(t.fields))
	}
	return t.fields[i], nil
}

// String renders tab-separated fields, "null" for unset ones, with a
// trailing newline.
func (t *Tuple) String() string {
	parts := make([]string, len(t.fields))
	for i, f := range t.fields {
		if f == nil {
			parts[i] = "null"
		} else {
			parts[i] = f.String()
		}
	}
	return strings.Join(parts, "\t") + "\n"
}

// Clone returns a deep-enough copy: same field values (fields themselves
// are treated as immutable), a fresh RecordID pointer if one is set.
func (t *Tuple) Clone() *Tuple {
	clone := &Tuple{
		TupleDesc: t.TupleDesc,
		fields:    make([]types.Field, len(t.fields)),
	}
	copy(clone.fields, t.fields)
	if t.RecordID != nil {
		rid := *t.RecordID
		clone.RecordID = &rid
	}
	return clone
}

// CombineTuples concatenates two tuples' fields under a combined schema.
// Used by Join to build an output row from a matching left/right pair.
func CombineTuples(t1, t2 *Tuple) (*Tuple, error) {
	if t1 == nil || t2 == nil {
		return nil, fmt.Errorf("cannot combine nil tuples")
	}
	combined := Combine(t1.TupleDesc, t2.TupleDesc)
	result := NewTuple(combined)
	if err := t1.copyFieldsTo(result, 0); err != nil {
		return nil, err
	}
	if err := t2.copyFieldsTo(result, t1.TupleDesc.NumFields()); err != nil {
		return nil, err
	}
	return result, nil
}

func (t *Tuple) copyFieldsTo(target *Tuple, startIndex int) error {
	for i, f := range t.fields {
		if err := target.SetField(startIndex+i, f); err != nil {
			return err
		}
	}
	return nil
}
