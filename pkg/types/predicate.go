package types

// Predicate names a comparison operation between a field and a constant
// (or between two fields, for a join predicate).
type Predicate int

const (
	Equals Predicate = iota
	NotEqual
	LessThan
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
	Like
)

func (p Predicate) String() string {
	switch p {
	case Equals:
		return "="
	case NotEqual:
		return "!="
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	case Like:
		return "LIKE"
	default:
		return "UNKNOWN"
	}
}
