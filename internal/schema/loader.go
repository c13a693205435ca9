package schema

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// ErrorCode categorizes loader errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError      ErrorCode = "InputError"
	ParseError      ErrorCode = "ParseError"
	ValidationError ErrorCode = "ValidationError"
)

// SchemaError is a structured loader error with an optional location and
// field path.
type SchemaError struct {
	Code     ErrorCode
	Message  string
	Location string // file path
	Path     string // e.g. "methods[3].params[1].ty"
	Cause    error
}

func (e *SchemaError) Error() string { return e.Message }
func (e *SchemaError) Unwrap() error { return e.Cause }

// Format selects the decoder used for a schema file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the decoder from the file extension. JSON goes through the
// YAML decoder.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("unsupported schema file extension %q (want .yaml, .yml, .json or .toml)", filepath.Ext(path))
}

// Load reads, decodes, normalizes and validates a schema file. Parameters
// named after reserved words are escaped before validation.
func Load(ctx context.Context, path string) (*Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		return nil, &SchemaError{Code: InputError, Message: "schema: path is empty"}
	}
	format, err := FormatFor(path)
	if err != nil {
		return nil, &SchemaError{Code: InputError, Message: "schema: " + err.Error(), Location: path, Cause: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SchemaError{Code: InputError, Message: fmt.Sprintf("schema: read %s: %v", path, err), Location: path, Cause: err}
	}
	s, err := Decode(data, format)
	if err != nil {
		var se *SchemaError
		if errors.As(err, &se) {
			se.Location = path
		}
		return nil, err
	}
	return s, nil
}

// Decode decodes, escapes and validates schema bytes.
func Decode(data []byte, format Format) (*Schema, error) {
	var s Schema
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil {
			return nil, &SchemaError{Code: ParseError, Message: "schema: " + err.Error(), Cause: err}
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &s)
		if err != nil {
			return nil, &SchemaError{Code: ParseError, Message: "schema: " + err.Error(), Cause: err}
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			sort.Strings(keys)
			return nil, &SchemaError{
				Code:    ParseError,
				Message: "schema: unknown fields: " + strings.Join(keys, ", "),
				Path:    keys[0],
			}
		}
	default:
		return nil, &SchemaError{Code: InputError, Message: fmt.Sprintf("schema: unknown format %q", format)}
	}

	if err := checkEscapedSpellings(&s); err != nil {
		return nil, err
	}
	EscapeKeywords(&s)
	if err := Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the structural invariants generation relies on.
func Validate(s *Schema) error {
	invalid := func(path, format string, args ...any) error {
		return &SchemaError{Code: ValidationError, Message: "schema: " + path + ": " + fmt.Sprintf(format, args...), Path: path}
	}

	if strings.TrimSpace(s.APIVersion.Ver) == "" {
		return invalid("api_version.ver", "is required")
	}
	if _, err := semver.NewVersion(s.APIVersion.Ver); err != nil {
		return invalid("api_version.ver", "%q is not a version: %v", s.APIVersion.Ver, err)
	}

	seen := make(map[string]int, len(s.Methods))
	for i, m := range s.Methods {
		mp := fmt.Sprintf("methods[%d]", i)
		for j, n := range m.Names {
			if strings.TrimSpace(n) == "" {
				return invalid(fmt.Sprintf("%s.names[%d]", mp, j), "is empty")
			}
		}
		if prev, dup := seen[m.Names.Type()]; dup {
			return invalid(mp+".names", "type name %q already declared by methods[%d]", m.Names.Type(), prev)
		}
		seen[m.Names.Type()] = i

		if err := checkType(m.ReturnType, mp+".return_ty"); err != nil {
			return err
		}

		params := make(map[string]struct{}, len(m.Params))
		for j, p := range m.Params {
			pp := fmt.Sprintf("%s.params[%d]", mp, j)
			if strings.TrimSpace(p.Name) == "" {
				return invalid(pp+".name", "is empty")
			}
			if _, dup := params[p.Name]; dup {
				return invalid(pp+".name", "duplicate parameter %q in %s", p.Name, m.Names.Original())
			}
			params[p.Name] = struct{}{}
			if err := checkType(p.Type, pp+".ty"); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkType rejects nested Option types and empty raw names anywhere in t.
// Option(Option(T)) has no agreed meaning, so it is refused instead of being
// flattened.
func checkType(t Type, path string) error {
	if t.OptionDepth() > 1 {
		return &SchemaError{
			Code:    ValidationError,
			Message: fmt.Sprintf("schema: %s: nested Option in %s is not supported", path, t.Expr()),
			Path:    path,
		}
	}
	switch t.Kind {
	case KindOption, KindArrayOf:
		if t.Elem == nil {
			return &SchemaError{Code: ValidationError, Message: fmt.Sprintf("schema: %s: %s without an element type", path, t.Kind), Path: path}
		}
		return checkType(*t.Elem, path)
	case KindRawTy:
		if t.Name == "" {
			return &SchemaError{Code: ValidationError, Message: fmt.Sprintf("schema: %s: empty raw type name", path), Path: path}
		}
		return nil
	case KindTrue, KindU8, KindU16, KindU32, KindI32, KindU64, KindI64,
		KindF64, KindBool, KindString, KindURL, KindDateTime:
		return nil
	}
	panic(Unreachable(t.Kind))
}

// CheckAPIVersion verifies the schema's api version against a semver
// constraint such as ">= 6.0". An empty constraint always passes.
func CheckAPIVersion(s *Schema, constraint string) error {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return &SchemaError{Code: InputError, Message: fmt.Sprintf("schema: invalid api version constraint %q: %v", constraint, err), Cause: err}
	}
	v, err := semver.NewVersion(s.APIVersion.Ver)
	if err != nil {
		return &SchemaError{Code: ValidationError, Message: fmt.Sprintf("schema: api_version.ver %q is not a version", s.APIVersion.Ver), Path: "api_version.ver", Cause: err}
	}
	if !c.Check(v) {
		return &SchemaError{
			Code:    ValidationError,
			Message: fmt.Sprintf("schema: api version %s does not satisfy %q", s.APIVersion.Ver, constraint),
			Path:    "api_version.ver",
		}
	}
	return nil
}
