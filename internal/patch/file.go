package patch

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// ruleSpec is one entry of a rule file:
//
//	rules:
//	  - target: method
//	    method: addStickerToSet
//	    op: full_replace
//	    text: "Use this method to add a new sticker to a set."
//	    with: "Use this method to add a sticker to a set."
type ruleSpec struct {
	Target string `yaml:"target"`
	Method string `yaml:"method"`
	Field  string `yaml:"field"`
	Op     string `yaml:"op"`
	Key    string `yaml:"key"`
	Value  string `yaml:"value"`
	Text   string `yaml:"text"`
	With   string `yaml:"with"`
}

type ruleFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

// LoadRules reads additional rules from a YAML file. Custom operations cannot
// be expressed in a file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read rule file %s", path)
	}
	rules, err := ParseRules(data)
	if err != nil {
		return nil, errors.Wrapf(err, "rule file %s", path)
	}
	return rules, nil
}

// ParseRules decodes rule file content.
func ParseRules(data []byte) ([]Rule, error) {
	var f ruleFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, errors.Mark(errors.Wrap(err, "decode"), ErrConfig)
	}
	rules := make([]Rule, 0, len(f.Rules))
	for i, spec := range f.Rules {
		r, err := spec.rule()
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "rules[%d]", i), ErrConfig)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func filterFor(name string) Filter {
	if name = strings.TrimSpace(name); name == "" || name == "*" {
		return All
	}
	return Only(name)
}

func (s ruleSpec) rule() (Rule, error) {
	var t Target
	switch strings.ToLower(strings.TrimSpace(s.Target)) {
	case "any", "":
		if s.Field != "" {
			return Rule{}, errors.New("target any does not take a field")
		}
		t = AnyMethod(filterFor(s.Method))
	case "method":
		if strings.TrimSpace(s.Method) == "" {
			return Rule{}, errors.New("target method requires a method name")
		}
		t = ExactMethod(strings.TrimSpace(s.Method))
	case "field":
		t = Field(filterFor(s.Method), filterFor(s.Field))
	default:
		return Rule{}, fmt.Errorf("unknown target %q (allowed: any, method, field)", s.Target)
	}

	require := func(field, value string) error {
		if value == "" {
			return fmt.Errorf("op %s requires %q", s.Op, field)
		}
		return nil
	}

	var op Operation
	switch strings.ToLower(strings.TrimSpace(s.Op)) {
	case "replace_link":
		if err := errors.CombineErrors(require("key", s.Key), require("value", s.Value)); err != nil {
			return Rule{}, err
		}
		op = ReplaceLink(s.Key, s.Value)
	case "add_link":
		if err := errors.CombineErrors(require("key", s.Key), require("value", s.Value)); err != nil {
			return Rule{}, err
		}
		op = AddLink(s.Key, s.Value)
	case "remove_link":
		if err := require("key", s.Key); err != nil {
			return Rule{}, err
		}
		op = RemoveLink(s.Key)
	case "full_replace":
		if err := require("text", s.Text); err != nil {
			return Rule{}, err
		}
		op = FullReplace(s.Text, s.With)
	case "replace":
		if err := require("text", s.Text); err != nil {
			return Rule{}, err
		}
		op = Replace(s.Text, s.With)
	case "custom":
		return Rule{}, errors.New("custom operations cannot be declared in a rule file")
	default:
		return Rule{}, fmt.Errorf("unknown op %q", s.Op)
	}
	return Rule{Target: t, Op: op}, nil
}
