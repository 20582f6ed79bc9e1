// Package tuple defines the schema (TupleDescription) and row (Tuple)
// representation shared by every storage and execution component.
package tuple

import (
	"fmt"
	"strings"

	"coredb/pkg/config"
	"coredb/pkg/types"
)

// TupleDescription is an ordered sequence of (type, optional name) pairs.
type TupleDescription struct {
	Types      []types.Type
	FieldNames []string
}

// NewTupleDesc builds a TupleDescription from parallel type/name slices.
// fieldNames may be nil, in which case every field is unnamed. The slices
// are copied defensively.
func NewTupleDesc(fieldTypes []types.Type, fieldNames []string) (*TupleDescription, error) {
	if len(fieldTypes) == 0 {
		return nil, fmt.Errorf("tuple description must have at least one field")
	}
	if fieldNames != nil && len(fieldNames) != len(fieldTypes) {
		return nil, fmt.Errorf("field names length %d does not match types length %d", len(fieldNames), len(fieldTypes))
	}

	typesCopy := make([]types.Type, len(fieldTypes))
	copy(typesCopy, fieldTypes)

	namesCopy := make([]string, len(fieldTypes))
	if fieldNames != nil {
		copy(namesCopy, fieldNames)
	}

	return &TupleDescription{Types: typesCopy, FieldNames: namesCopy}, nil
}

// NumFields returns the number of fields in this schema.
func (td *TupleDescription) NumFields() int {
	return len(td.Types)
}

// GetFieldName returns the name of field i, or "" if unnamed.
func (td *TupleDescription) GetFieldName(i int) string {
	if i < 0 || i >= len(td.FieldNames) {
		return ""
	}
	return td.FieldNames[i]
}

// TypeAtIndex returns the type of field i.
func (td *TupleDescription) TypeAtIndex(i int) (types.Type, error) {
	if i < 0 || i >= len(td.Types) {
		return 0, fmt.Errorf("field index %d out of range [0,%d)", i, len(td.Types))
	}
	return td.Types[i], nil
}

// GetSize returns the tuple's fixed on-disk width: the sum of each field's
// width, where string fields use the default capacity (a TupleDescription
// alone does not know a specific instance's capacity beyond the default).
func (td *TupleDescription) GetSize() uint32 {
	var size uint32
	for _, t := range td.Types {
		if t == types.StringType {
			size += 4 + uint32(config.DefaultStringCapacity)
		} else {
			size += t.Len()
		}
	}
	return size
}

// FindFieldIndex returns the first index whose name matches, or an error if
// none does.
func (td *TupleDescription) FindFieldIndex(fieldName string) (int, error) {
	for i, name := range td.FieldNames {
		if name == fieldName {
			return i, nil
		}
	}
	return -1, fmt.Errorf("no such field")
}

// Equals reports whether two TupleDescriptions have the same ordered
// type+name sequence.
func (td *TupleDescription) Equals(other *TupleDescription) bool {
	if td == nil || other == nil {
		return td == other
	}
	if len(td.Types) != len(other.Types) {
		return false
	}
	for i := range td.Types {
		if td.Types[i] != other.Types[i] {
			return false
		}
		if td.GetFieldName(i) != other.GetFieldName(i) {
			return false
		}
	}
	return true
}

// String renders "Type1(name1),Type2(name2),..."; unnamed fields render as
// "null".
func (td *TupleDescription) String() string {
	parts := make([]string, len(td.Types))
	for i, t := range td.Types {
		name := td.GetFieldName(i)
		if name == "" {
			name = "null"
		}
		parts[i] = fmt.Sprintf("%s(%s)", t, name)
	}
	return strings.Join(parts, ",")
}

// Combine concatenates two TupleDescriptions, defaulting missing names to
// "". Either argument may be nil.
func Combine(td1, td2 *TupleDescription) *TupleDescription {
	if td1 == nil && td2 == nil {
		return nil
	}
	if td1 == nil {
		return td2
	}
	if td2 == nil {
		return td1
	}

	newTypes := make([]types.Type, 0, len(td1.Types)+len(td2.Types))
	newTypes = append(newTypes, td1.Types...)
	newTypes = append(newTypes, td2.Types...)

	newNames := make([]string, 0, len(td1.FieldNames)+len(td2.FieldNames))
	for i := range td1.Types {
		newNames = append(newNames, td1.GetFieldName(i))
	}
	for i := range td2.Types {
		newNames = append(newNames, td2.GetFieldName(i))
	}

	combined, _ := NewTupleDesc(newTypes, newNames)
	return combined
}
