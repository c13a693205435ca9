package schema

import (
	"fmt"
	"strings"
)

// EscapeMarker is appended to identifiers that collide with Rust keywords.
const EscapeMarker = "_"

var rustKeywords = map[string]struct{}{
	"as": {}, "async": {}, "await": {}, "break": {}, "const": {}, "continue": {},
	"crate": {}, "dyn": {}, "else": {}, "enum": {}, "extern": {}, "false": {},
	"fn": {}, "for": {}, "if": {}, "impl": {}, "in": {}, "let": {}, "loop": {},
	"match": {}, "mod": {}, "move": {}, "mut": {}, "pub": {}, "ref": {},
	"return": {}, "self": {}, "static": {}, "struct": {}, "super": {},
	"trait": {}, "true": {}, "type": {}, "unsafe": {}, "use": {}, "where": {},
	"while": {},
}

// IsKeyword reports whether name is a reserved Rust word.
func IsKeyword(name string) bool {
	_, ok := rustKeywords[name]
	return ok
}

// EscapeKeywords renames parameters whose names are reserved words. It returns
// the number of renamed parameters.
func EscapeKeywords(s *Schema) int {
	n := 0
	for i := range s.Methods {
		for j := range s.Methods[i].Params {
			p := &s.Methods[i].Params[j]
			if IsKeyword(p.Name) {
				p.Name += EscapeMarker
				n++
			}
		}
	}
	return n
}

// checkEscapedSpellings refuses parameters already spelled like an escaped
// keyword. After escaping, `type_` must mean the wire name `type`, so a
// schema may not use that spelling for a different wire name.
func checkEscapedSpellings(s *Schema) error {
	for i, m := range s.Methods {
		for j, p := range m.Params {
			if _, escaped := WireName(p.Name); escaped {
				path := fmt.Sprintf("methods[%d].params[%d].name", i, j)
				return &SchemaError{
					Code:    ValidationError,
					Message: fmt.Sprintf("schema: %s: %q is reserved for the escaped form of %q", path, p.Name, strings.TrimSuffix(p.Name, EscapeMarker)),
					Path:    path,
				}
			}
		}
	}
	return nil
}

// WireName recovers the serialized name of a possibly escaped field. Loaded
// schemas never carry a literal keyword-plus-marker name, so the suffix is
// unambiguous.
func WireName(field string) (string, bool) {
	base, ok := strings.CutSuffix(field, EscapeMarker)
	if !ok || !IsKeyword(base) {
		return field, false
	}
	return base, true
}
