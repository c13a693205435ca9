// Package patch applies an ordered table of documentation fixes to a loaded
// schema before anything is generated.
//
// A Rule pairs a Target (which docs) with an Operation (what to do). Rules run
// strictly in table order and every rule visits every matching doc, so a
// later rule sees the result of earlier ones. Preconditions that fail
// (a link missing under an exact target, a full replacement whose expected
// text no longer matches) are configuration errors: the table is stale
// relative to the schema and the run must stop.
package patch

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/mark3labs/tgcg/internal/schema"
)

// ErrConfig marks errors caused by a rule whose precondition does not hold.
// The mark survives wrapping; match it with github.com/cockroachdb/errors.Is.
var ErrConfig = errors.New("doc patch configuration error")

// Filter matches a method or field name. The zero value matches everything.
type Filter struct {
	name string
	set  bool
}

// All matches every name.
var All = Filter{}

// Only matches exactly name.
func Only(name string) Filter { return Filter{name: name, set: true} }

func (f Filter) match(name string) bool { return !f.set || f.name == name }

func (f Filter) String() string {
	if !f.set {
		return "*"
	}
	return f.name
}

type TargetKind uint8

const (
	// TargetAny covers a method's doc and all of its parameter docs.
	TargetAny TargetKind = iota
	// TargetMethod covers a single method's doc.
	TargetMethod
	// TargetField covers parameter docs.
	TargetField
)

type Target struct {
	Kind   TargetKind
	Method Filter
	Field  Filter
}

func AnyMethod(method Filter) Target { return Target{Kind: TargetAny, Method: method} }

func ExactMethod(name string) Target { return Target{Kind: TargetMethod, Method: Only(name)} }

func Field(method, field Filter) Target {
	return Target{Kind: TargetField, Method: method, Field: field}
}

// Exact reports whether the target pins down specific docs. Operations that
// expect something to exist fail loudly only under exact targets.
func (t Target) Exact() bool {
	switch t.Kind {
	case TargetMethod:
		return t.Method.set
	case TargetField:
		return t.Method.set && t.Field.set
	case TargetAny:
		return false
	}
	return false
}

func (t Target) String() string {
	switch t.Kind {
	case TargetAny:
		return "any(" + t.Method.String() + ")"
	case TargetMethod:
		return "method(" + t.Method.String() + ")"
	case TargetField:
		return "field(" + t.Method.String() + "." + t.Field.String() + ")"
	}
	return fmt.Sprintf("target(%d)", t.Kind)
}

type OpKind uint8

const (
	OpReplaceLink OpKind = iota
	OpAddLink
	OpRemoveLink
	OpFullReplace
	OpReplace
	OpCustom
)

func (k OpKind) String() string {
	switch k {
	case OpReplaceLink:
		return "replace_link"
	case OpAddLink:
		return "add_link"
	case OpRemoveLink:
		return "remove_link"
	case OpFullReplace:
		return "full_replace"
	case OpReplace:
		return "replace"
	case OpCustom:
		return "custom"
	}
	return fmt.Sprintf("op(%d)", k)
}

// Operation is one doc transformation. Which fields are meaningful depends
// on Kind; use the constructors.
type Operation struct {
	Kind OpKind
	// Key and Value are the link name and URL for link operations.
	Key   string
	Value string
	// Text and With are the search text and replacement for text operations.
	Text string
	With string
	// Name labels a custom operation in errors and logs.
	Name string
	Fn   func(*schema.Doc) error
}

func ReplaceLink(key, url string) Operation {
	return Operation{Kind: OpReplaceLink, Key: key, Value: url}
}

func AddLink(key, url string) Operation { return Operation{Kind: OpAddLink, Key: key, Value: url} }

func RemoveLink(key string) Operation { return Operation{Kind: OpRemoveLink, Key: key} }

// FullReplace swaps the whole body, asserting it currently equals expected.
func FullReplace(expected, with string) Operation {
	return Operation{Kind: OpFullReplace, Text: expected, With: with}
}

func Replace(text, with string) Operation { return Operation{Kind: OpReplace, Text: text, With: with} }

func Custom(name string, fn func(*schema.Doc) error) Operation {
	return Operation{Kind: OpCustom, Name: name, Fn: fn}
}

func (op Operation) String() string {
	switch op.Kind {
	case OpReplaceLink, OpAddLink, OpRemoveLink:
		return fmt.Sprintf("%s(%q)", op.Kind, op.Key)
	case OpFullReplace, OpReplace:
		return fmt.Sprintf("%s(%q)", op.Kind, abbreviate(op.Text))
	case OpCustom:
		return fmt.Sprintf("%s(%s)", op.Kind, op.Name)
	}
	return op.Kind.String()
}

type Rule struct {
	Target Target
	Op     Operation
}

func (r Rule) String() string { return r.Target.String() + " " + r.Op.String() }

// Apply runs rules over s in order. It stops at the first error.
func Apply(s *schema.Schema, rules []Rule) error {
	for i, rule := range rules {
		if err := applyRule(s, rule); err != nil {
			return errors.Wrapf(err, "patch rule %d [%s]", i, rule)
		}
	}
	return nil
}

func applyRule(s *schema.Schema, rule Rule) error {
	exact := rule.Target.Exact()
	for mi := range s.Methods {
		m := &s.Methods[mi]
		if !rule.Target.Method.match(m.Names.Original()) {
			continue
		}
		switch rule.Target.Kind {
		case TargetMethod:
			if err := rule.Op.apply(&m.Doc, exact); err != nil {
				return errors.Wrapf(err, "method %s", m.Names.Original())
			}
		case TargetField:
			for pi := range m.Params {
				p := &m.Params[pi]
				if !rule.Target.Field.match(p.Name) {
					continue
				}
				if err := rule.Op.apply(&p.Descr, exact); err != nil {
					return errors.Wrapf(err, "field %s.%s", m.Names.Original(), p.Name)
				}
			}
		case TargetAny:
			if err := rule.Op.apply(&m.Doc, exact); err != nil {
				return errors.Wrapf(err, "method %s", m.Names.Original())
			}
			for pi := range m.Params {
				p := &m.Params[pi]
				if err := rule.Op.apply(&p.Descr, exact); err != nil {
					return errors.Wrapf(err, "field %s.%s", m.Names.Original(), p.Name)
				}
			}
		default:
			return errors.AssertionFailedf("patch: unknown target kind %d", rule.Target.Kind)
		}
	}
	return nil
}

func (op Operation) apply(doc *schema.Doc, exact bool) error {
	switch op.Kind {
	case OpReplaceLink:
		if _, ok := doc.Links[op.Key]; ok {
			doc.Links[op.Key] = op.Value
			return nil
		}
		if exact {
			return errors.Mark(errors.Newf("doc has no link %q", op.Key), ErrConfig)
		}
		return nil
	case OpAddLink:
		if doc.Links == nil {
			doc.Links = make(map[string]string)
		}
		doc.Links[op.Key] = op.Value
		return nil
	case OpRemoveLink:
		delete(doc.Links, op.Key)
		return nil
	case OpFullReplace:
		if doc.Md != op.Text {
			err := errors.New("doc text does not match the expected text of a full replacement")
			err = errors.WithDetailf(err, "expected: %q\nactual:   %q", op.Text, doc.Md)
			return errors.Mark(err, ErrConfig)
		}
		doc.Md = op.With
		return nil
	case OpReplace:
		doc.Md = strings.ReplaceAll(doc.Md, op.Text, op.With)
		return nil
	case OpCustom:
		if op.Fn == nil {
			return errors.AssertionFailedf("patch: custom operation %q has no function", op.Name)
		}
		return op.Fn(doc)
	}
	return errors.AssertionFailedf("patch: unknown operation kind %d", op.Kind)
}

func abbreviate(s string) string {
	const limit = 40
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}
