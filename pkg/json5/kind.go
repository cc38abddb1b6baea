package json5

// Kind is the syntactic kind of a JSON5 value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// IsContainer reports whether values of kind k hold children.
func (k Kind) IsContainer() bool {
	return k == KindArray || k == KindObject
}
