package types

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"
	"strings"

	"coredb/pkg/config"
)

// StringField holds a variable-length string padded to a fixed capacity on
// the wire. The default capacity matches config.DefaultStringCapacity.
type StringField struct {
	Value    string
	Capacity int
}

// NewStringField constructs a StringField, truncating Value to capacity if
// it is longer. A capacity of 0 uses config.DefaultStringCapacity.
func NewStringField(value string, capacity int) *StringField {
	if capacity <= 0 {
		capacity = config.DefaultStringCapacity
	}
	if len(value) > capacity {
		value = value[:capacity]
	}
	return &StringField{Value: value, Capacity: capacity}
}

func (f *StringField) Type() Type { return StringType }

// Length is the 4-byte length prefix plus the fixed capacity.
func (f *StringField) Length() uint32 {
	return 4 + uint32(f.Capacity)
}

func (f *StringField) Serialize(w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(f.Value))); err != nil {
		return err
	}
	if _, err := w.Write([]byte(f.Value)); err != nil {
		return err
	}
	padding := f.Capacity - len(f.Value)
	if padding < 0 {
		return fmt.Errorf("string value %q exceeds field capacity %d", f.Value, f.Capacity)
	}
	if padding > 0 {
		if _, err := w.Write(make([]byte, padding)); err != nil {
			return err
		}
	}
	return nil
}

func (f *StringField) Compare(op Predicate, other Field) (bool, error) {
	o, ok := other.(*StringField)
	if !ok {
		return false, nil
	}
	switch op {
	case Equals:
		return f.Value == o.Value, nil
	case NotEqual:
		return f.Value != o.Value, nil
	case LessThan:
		return f.Value < o.Value, nil
	case LessThanOrEqual:
		return f.Value <= o.Value, nil
	case GreaterThan:
		return f.Value > o.Value, nil
	case GreaterThanOrEqual:
		return f.Value >= o.Value, nil
	case Like:
		return strings.Contains(f.Value, o.Value), nil
	default:
		return false, fmt.Errorf("operation %s not supported on STRING_TYPE", op)
	}
}

func (f *StringField) String() string {
	return f.Value
}

func (f *StringField) Equals(other Field) bool {
	o, ok := other.(*StringField)
	return ok && o.Value == f.Value
}

func (f *StringField) Hash() (uint32, error) {
	h := fnv.New32a()
	if _, err := h.Write([]byte(f.Value)); err != nil {
		return 0, err
	}
	return h.Sum32(), nil
}
