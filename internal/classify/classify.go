// Package classify holds the type-driven decisions the emitters share: which
// traits a payload can derive, how a parameter is converted when a caller
// supplies it, which serde attributes a field needs, and whether a method
// has to be sent as multipart.
//
// Every function here switches over the full schema.Kind set without a
// default arm. Adding a kind means revisiting each switch.
package classify

import (
	"github.com/mark3labs/tgcg/internal/schema"
)

var (
	// raw types that embed floats or union-like alternatives
	eqHashExcluded = map[string]bool{
		"MaskPosition":      true,
		"InlineQueryResult": true,
	}

	// raw types with From impls on the client side
	intoRaw = map[string]bool{
		"Recipient":     true,
		"ChatId":        true,
		"TargetMessage": true,
		"ReplyMarkup":   true,
	}

	// raw types whose fields are merged into the parent object on the wire
	flattenRaw = map[string]bool{
		"InputSticker":  true,
		"TargetMessage": true,
	}

	// raw types carrying file content
	fileRaw = map[string]bool{
		"InputFile":    true,
		"InputSticker": true,
	}

	// payloads embedding InputMedia, which may itself carry files
	mediaMethods = map[string]bool{
		"SendMediaGroup":         true,
		"EditMessageMedia":       true,
		"EditMessageMediaInline": true,
	}
)

// DeriveEquality reports whether the payload can derive Eq and Hash.
func DeriveEquality(m *schema.Method) bool {
	for _, p := range m.Params {
		if !eqHashSuitable(p.Type) {
			return false
		}
	}
	return true
}

func eqHashSuitable(t schema.Type) bool {
	switch t.Kind {
	case schema.KindF64:
		return false
	case schema.KindOption, schema.KindArrayOf:
		return eqHashSuitable(*t.Elem)
	case schema.KindRawTy:
		return !eqHashExcluded[t.Name]
	case schema.KindTrue, schema.KindU8, schema.KindU16, schema.KindU32,
		schema.KindI32, schema.KindU64, schema.KindI64, schema.KindBool,
		schema.KindString, schema.KindURL, schema.KindDateTime:
		return true
	}
	panic(schema.Unreachable(t.Kind))
}

// DeriveDefault reports whether the payload can derive Default, which holds
// when every parameter is optional (including the no-parameter case).
func DeriveDefault(m *schema.Method) bool {
	for _, p := range m.Params {
		if !p.Optional() {
			return false
		}
	}
	return true
}

// MultipartFields returns the names of parameters holding file content, in
// declaration order. A non-empty result means the method is sent as
// multipart/form-data.
func MultipartFields(m *schema.Method) []string {
	var fields []string
	for _, p := range m.Params {
		if isFile(p.Type) {
			fields = append(fields, p.Name)
		}
	}
	return fields
}

// RequiresMultipart is the boolean form of MultipartFields.
func RequiresMultipart(m *schema.Method) bool {
	return len(MultipartFields(m)) > 0
}

func isFile(t schema.Type) bool {
	inner, _ := t.Unwrap()
	switch inner.Kind {
	case schema.KindRawTy:
		return fileRaw[inner.Name]
	case schema.KindOption, schema.KindArrayOf, schema.KindTrue, schema.KindU8,
		schema.KindU16, schema.KindU32, schema.KindI32, schema.KindU64,
		schema.KindI64, schema.KindF64, schema.KindBool, schema.KindString,
		schema.KindURL, schema.KindDateTime:
		return false
	}
	panic(schema.Unreachable(inner.Kind))
}

// ReducedDerive reports whether the payload gets the minimal derive set
// (Debug, Clone, Serialize): multipart payloads and the media-editing
// methods.
func ReducedDerive(m *schema.Method) bool {
	return RequiresMultipart(m) || mediaMethods[m.Names.Type()]
}

// DeriveLine renders the #[derive(..)] attribute for a payload.
func DeriveLine(m *schema.Method) string {
	if ReducedDerive(m) {
		return "#[derive(Debug, Clone, Serialize)]"
	}
	line := "#[derive(Debug, PartialEq,"
	if DeriveEquality(m) {
		line += " Eq, Hash,"
	}
	if DeriveDefault(m) {
		line += " Default,"
	}
	return line + " Clone, Serialize)]"
}
