package classify

import (
	"fmt"

	"github.com/mark3labs/tgcg/internal/schema"
)

const (
	dateCodec    = "crate::types::serde_date_from_unix_timestamp"
	optDateCodec = "crate::types::serde_opt_date_from_unix_timestamp"
)

// Hints are the serde attributes a payload field needs.
type Hints struct {
	Flatten bool
	// With names the module used as a custom (de)serializer.
	With string
	// Rename is the wire name when the field identifier was escaped.
	Rename string
}

// SerializationHints computes serde attributes for p. The parameter type is
// inspected with at most one Option level removed.
func SerializationHints(p schema.Param) Hints {
	inner, optional := p.Type.Unwrap()
	h := wireHints(inner, optional)
	if wire, escaped := schema.WireName(p.Name); escaped {
		h.Rename = wire
	}
	return h
}

func wireHints(t schema.Type, optional bool) Hints {
	switch t.Kind {
	case schema.KindRawTy:
		return Hints{Flatten: flattenRaw[t.Name]}
	case schema.KindDateTime:
		if optional {
			return Hints{With: optDateCodec}
		}
		return Hints{With: dateCodec}
	case schema.KindOption, schema.KindArrayOf, schema.KindTrue, schema.KindU8,
		schema.KindU16, schema.KindU32, schema.KindI32, schema.KindU64,
		schema.KindI64, schema.KindF64, schema.KindBool, schema.KindString,
		schema.KindURL:
		return Hints{}
	}
	panic(schema.Unreachable(t.Kind))
}

// Attributes renders the hints as attribute lines, in the fixed order
// flatten, with, rename.
func (h Hints) Attributes() []string {
	var attrs []string
	if h.Flatten {
		attrs = append(attrs, "#[serde(flatten)]")
	}
	if h.With != "" {
		attrs = append(attrs, fmt.Sprintf("#[serde(with = %q)]", h.With))
	}
	if h.Rename != "" {
		attrs = append(attrs, fmt.Sprintf("#[serde(rename = %q)]", h.Rename))
	}
	return attrs
}
