package classify

import (
	"github.com/mark3labs/tgcg/internal/schema"
)

// Strategy is how a setter or requester argument accepts its value.
type Strategy uint8

const (
	// Identity takes the exact field type.
	Identity Strategy = iota
	// Into takes anything convertible into the field type.
	Into
	// Collect takes any iterable of the element type.
	Collect
)

func (s Strategy) String() string {
	switch s {
	case Identity:
		return "identity"
	case Into:
		return "into"
	case Collect:
		return "collect"
	}
	return "unknown"
}

// Convert pairs a strategy with the type it targets. For Collect the type is
// the element type.
type Convert struct {
	Strategy Strategy
	Type     schema.Type
}

// Suffix is the field-list marker understood by impl_payload!.
func (c Convert) Suffix() string {
	switch c.Strategy {
	case Identity:
		return ""
	case Into:
		return " [into]"
	case Collect:
		return " [collect]"
	}
	return ""
}

// ConversionFor maps every type to its conversion strategy. Option
// delegates to the wrapped type.
func ConversionFor(t schema.Type) Convert {
	switch t.Kind {
	case schema.KindTrue, schema.KindU8, schema.KindU16, schema.KindU32,
		schema.KindI32, schema.KindU64, schema.KindI64, schema.KindF64,
		schema.KindBool, schema.KindURL:
		return Convert{Strategy: Identity, Type: t}
	case schema.KindString, schema.KindDateTime:
		return Convert{Strategy: Into, Type: t}
	case schema.KindOption:
		return ConversionFor(*t.Elem)
	case schema.KindArrayOf:
		return Convert{Strategy: Collect, Type: *t.Elem}
	case schema.KindRawTy:
		if intoRaw[t.Name] {
			return Convert{Strategy: Into, Type: t}
		}
		return Convert{Strategy: Identity, Type: t}
	}
	panic(schema.Unreachable(t.Kind))
}
