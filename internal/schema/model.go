package schema

import "sort"

// In-memory model of the Bot API method schema. Everything here is data;
// behaviour lives in the classify, patch and emitter packages.

type Schema struct {
	APIVersion APIVersion        `yaml:"api_version" toml:"api_version"`
	Methods    []Method          `yaml:"methods" toml:"methods"`
	Categories map[string]string `yaml:"tg_categories,omitempty" toml:"tg_categories"`
}

type APIVersion struct {
	Ver  string `yaml:"ver" toml:"ver"`
	Date string `yaml:"date" toml:"date"`
}

// Names holds the three spellings of a method name: the original Bot API
// name (sendMessage), the declared type name (SendMessage) and the
// identifier form (send_message).
type Names [3]string

func (n Names) Original() string { return n[0] }
func (n Names) Type() string     { return n[1] }
func (n Names) Ident() string    { return n[2] }

type Method struct {
	Names      Names   `yaml:"names" toml:"names"`
	ReturnType Type    `yaml:"return_ty" toml:"return_ty"`
	Doc        Doc     `yaml:"doc" toml:"doc"`
	TgDoc      string  `yaml:"tg_doc" toml:"tg_doc"`
	TgCategory string  `yaml:"tg_category" toml:"tg_category"`
	Notes      []Doc   `yaml:"notes,omitempty" toml:"notes"`
	Params     []Param `yaml:"params" toml:"params"`
	// Sibling is the original name of a related method, empty when there is none.
	Sibling string `yaml:"sibling,omitempty" toml:"sibling"`
}

type Param struct {
	Name  string `yaml:"name" toml:"name"`
	Type  Type   `yaml:"ty" toml:"ty"`
	Descr Doc    `yaml:"descr" toml:"descr"`
}

// Optional reports whether the parameter type is Option-wrapped.
func (p Param) Optional() bool { return p.Type.Kind == KindOption }

// Doc is a markdown body plus its reference-style link table.
type Doc struct {
	Md    string            `yaml:"md" toml:"md"`
	Links map[string]string `yaml:"md_links,omitempty" toml:"md_links"`
}

// LinkKeys returns the link names in sorted order. The link table is a map,
// so anything that ends up in generated output must go through here.
func (d Doc) LinkKeys() []string {
	keys := make([]string, 0, len(d.Links))
	for k := range d.Links {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy of the doc.
func (d Doc) Clone() Doc {
	out := Doc{Md: d.Md}
	if d.Links != nil {
		out.Links = make(map[string]string, len(d.Links))
		for k, v := range d.Links {
			out.Links[k] = v
		}
	}
	return out
}
