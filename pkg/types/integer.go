package types

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"
	"strconv"
)

// IntField holds a 32-bit signed integer value.
type IntField struct {
	Value int32
}

// NewIntField constructs an IntField.
func NewIntField(value int32) *IntField {
	return &IntField{Value: value}
}

func (f *IntField) Type() Type { return IntType }

func (f *IntField) Length() uint32 { return 4 }

func (f *IntField) Serialize(w io.Writer) error {
	return binary.Write(w, binary.BigEndian, f.Value)
}

func (f *IntField) Compare(op Predicate, other Field) (bool, error) {
	o, ok := other.(*IntField)
	if !ok {
		return false, nil
	}
	return compareInt32(op, f.Value, o.Value)
}

func compareInt32(op Predicate, a, b int32) (bool, error) {
	switch op {
	case Equals:
		return a == b, nil
	case NotEqual:
		return a != b, nil
	case LessThan:
		return a < b, nil
	case LessThanOrEqual:
		return a <= b, nil
	case GreaterThan:
		return a > b, nil
	case GreaterThanOrEqual:
		return a >= b, nil
	default:
		return false, fmt.Errorf("operation %s not supported on INT_TYPE", op)
	}
}

func (f *IntField) String() string {
	return strconv.FormatInt(int64(f.Value), 10)
}

func (f *IntField) Equals(other Field) bool {
	o, ok := other.(*IntField)
	return ok && o.Value == f.Value
}

func (f *IntField) Hash() (uint32, error) {
	h := fnv.New32a()
	if _, err := fmt.Fprintf(h, "%d", f.Value); err != nil {
		return 0, err
	}
	return h.Sum32(), nil
}
