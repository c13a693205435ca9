package schema

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Kind tags the closed set of schema types. Code that classifies types must
// switch over every kind explicitly; there is no catch-all.
type Kind uint8

const (
	KindTrue Kind = iota
	KindU8
	KindU16
	KindU32
	KindI32
	KindU64
	KindI64
	KindF64
	KindBool
	KindString
	KindOption
	KindArrayOf
	KindRawTy
	KindURL
	KindDateTime
)

// AllKinds lists every kind, in declaration order.
var AllKinds = []Kind{
	KindTrue, KindU8, KindU16, KindU32, KindI32, KindU64, KindI64, KindF64,
	KindBool, KindString, KindOption, KindArrayOf, KindRawTy, KindURL, KindDateTime,
}

var scalarNames = map[string]Kind{
	"True":     KindTrue,
	"u8":       KindU8,
	"u16":      KindU16,
	"u32":      KindU32,
	"i32":      KindI32,
	"u64":      KindU64,
	"i64":      KindI64,
	"f64":      KindF64,
	"bool":     KindBool,
	"String":   KindString,
	"Url":      KindURL,
	"DateTime": KindDateTime,
}

func (k Kind) String() string {
	switch k {
	case KindTrue:
		return "True"
	case KindU8:
		return "u8"
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindI32:
		return "i32"
	case KindU64:
		return "u64"
	case KindI64:
		return "i64"
	case KindF64:
		return "f64"
	case KindBool:
		return "bool"
	case KindString:
		return "String"
	case KindOption:
		return "Option"
	case KindArrayOf:
		return "ArrayOf"
	case KindRawTy:
		return "RawTy"
	case KindURL:
		return "Url"
	case KindDateTime:
		return "DateTime"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Type is a tagged union over Kind. Elem is set for Option and ArrayOf,
// Name for RawTy.
type Type struct {
	Kind Kind
	Elem *Type
	Name string
}

func Scalar(k Kind) Type { return Type{Kind: k} }

func Option(inner Type) Type { return Type{Kind: KindOption, Elem: &inner} }

func ArrayOf(elem Type) Type { return Type{Kind: KindArrayOf, Elem: &elem} }

func Raw(name string) Type { return Type{Kind: KindRawTy, Name: name} }

// Unwrap strips exactly one Option level.
func (t Type) Unwrap() (Type, bool) {
	if t.Kind == KindOption && t.Elem != nil {
		return *t.Elem, true
	}
	return t, false
}

// IsRaw reports whether t is RawTy(name).
func (t Type) IsRaw(name string) bool {
	return t.Kind == KindRawTy && t.Name == name
}

// String renders t as a Rust type.
func (t Type) String() string {
	switch t.Kind {
	case KindOption:
		return "Option<" + t.Elem.String() + ">"
	case KindArrayOf:
		return "Vec<" + t.Elem.String() + ">"
	case KindRawTy:
		return t.Name
	case KindDateTime:
		return "DateTime<Utc>"
	case KindTrue, KindU8, KindU16, KindU32, KindI32, KindU64, KindI64,
		KindF64, KindBool, KindString, KindURL:
		return t.Kind.String()
	}
	panic(Unreachable(t.Kind))
}

// Expr renders t in the constructor syntax accepted by ParseType.
func (t Type) Expr() string {
	switch t.Kind {
	case KindOption, KindArrayOf:
		return t.Kind.String() + "(" + t.Elem.Expr() + ")"
	case KindRawTy:
		return fmt.Sprintf("RawTy(%q)", t.Name)
	case KindTrue, KindU8, KindU16, KindU32, KindI32, KindU64, KindI64,
		KindF64, KindBool, KindString, KindURL, KindDateTime:
		return t.Kind.String()
	}
	panic(Unreachable(t.Kind))
}

// OptionDepth counts directly nested Option levels.
func (t Type) OptionDepth() int {
	n := 0
	for cur := t; cur.Kind == KindOption && cur.Elem != nil; cur = *cur.Elem {
		n++
	}
	return n
}

// Unreachable is the panic value for a switch that covered every kind and
// still fell through.
func Unreachable(k Kind) error {
	return errors.AssertionFailedf("schema: unhandled type kind %s", k)
}

// ParseType parses a type expression such as Option(ArrayOf(RawTy("ChatId"))).
func ParseType(src string) (Type, error) {
	p := &typeParser{src: src}
	t, err := p.parse()
	if err != nil {
		return Type{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return Type{}, errors.Newf("type %q: unexpected %q at offset %d", src, p.src[p.pos:], p.pos)
	}
	return t, nil
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && strings.ContainsRune(" \t\r\n", rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *typeParser) expect(c byte) error {
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != c {
		return errors.Newf("type %q: expected %q at offset %d", p.src, c, p.pos)
	}
	p.pos++
	return nil
}

func (p *typeParser) parse() (Type, error) {
	name := p.ident()
	if name == "" {
		return Type{}, errors.Newf("type %q: expected a type name at offset %d", p.src, p.pos)
	}
	switch name {
	case "Option", "ArrayOf":
		if err := p.expect('('); err != nil {
			return Type{}, err
		}
		inner, err := p.parse()
		if err != nil {
			return Type{}, err
		}
		if err := p.expect(')'); err != nil {
			return Type{}, err
		}
		if name == "Option" {
			return Option(inner), nil
		}
		return ArrayOf(inner), nil
	case "RawTy":
		if err := p.expect('('); err != nil {
			return Type{}, err
		}
		raw, err := p.rawName()
		if err != nil {
			return Type{}, err
		}
		if err := p.expect(')'); err != nil {
			return Type{}, err
		}
		return Raw(raw), nil
	}
	if k, ok := scalarNames[name]; ok {
		return Scalar(k), nil
	}
	return Type{}, errors.Newf("type %q: unknown type %q", p.src, name)
}

func (p *typeParser) rawName() (string, error) {
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '"' {
		end := strings.IndexByte(p.src[p.pos+1:], '"')
		if end < 0 {
			return "", errors.Newf("type %q: unterminated string", p.src)
		}
		name := p.src[p.pos+1 : p.pos+1+end]
		p.pos += end + 2
		if name == "" {
			return "", errors.Newf("type %q: empty raw type name", p.src)
		}
		return name, nil
	}
	name := p.ident()
	if name == "" {
		return "", errors.Newf("type %q: expected a raw type name at offset %d", p.src, p.pos)
	}
	return name, nil
}

func (t *Type) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errors.Newf("line %d: type must be a scalar expression", value.Line)
	}
	parsed, err := ParseType(value.Value)
	if err != nil {
		return errors.Wrapf(err, "line %d", value.Line)
	}
	*t = parsed
	return nil
}

func (t Type) MarshalYAML() (any, error) { return t.Expr(), nil }

func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t Type) MarshalText() ([]byte, error) { return []byte(t.Expr()), nil }
