package types

import (
	"encoding/binary"
	"fmt"
	"io"

	"coredb/pkg/config"
)

// ParseField reads one field of fieldType from r, dispatching to the
// type-specific decoder. Used by HeapPage when deserializing a slot.
func ParseField(r io.Reader, fieldType Type) (Field, error) {
	switch fieldType {
	case IntType:
		return parseIntField(r)
	case StringType:
		return parseStringField(r)
	default:
		return nil, fmt.Errorf("unsupported field type: %v", fieldType)
	}
}

func parseIntField(r io.Reader) (*IntField, error) {
	buf := make([]byte, 4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return NewIntField(int32(binary.BigEndian.Uint32(buf))), nil
}

func parseStringField(r io.Reader) (*StringField, error) {
	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		return nil, err
	}
	length := int(binary.BigEndian.Uint32(lenBuf))

	strBuf := make([]byte, length)
	if _, err := io.ReadFull(r, strBuf); err != nil {
		return nil, err
	}

	padding := config.DefaultStringCapacity - length
	if padding > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(padding)); err != nil {
			return nil, err
		}
	}

	return NewStringField(string(strBuf), config.DefaultStringCapacity), nil
}
