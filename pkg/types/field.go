package types

import "io"

// Field is a single tagged value stored in a tuple. Both concrete kinds
// (IntField, StringField) serialize to a fixed byte width determined by
// their type (and, for strings, their capacity).
type Field interface {
	// Serialize writes this field's fixed-width on-disk representation.
	Serialize(w io.Writer) error

	// Compare evaluates this field op other, e.g. f.Compare(LessThan, g)
	// asks whether f < g. Comparing across types always returns false.
	Compare(op Predicate, other Field) (bool, error)

	// Type reports this field's tag.
	Type() Type

	// Length reports the fixed on-disk width of this field in bytes.
	Length() uint32

	// Equals reports structural equality: same type and same value.
	Equals(other Field) bool

	// Hash returns a hash of the field's value, consistent with Equals.
	Hash() (uint32, error)

	String() string
}
