package classify

import (
	"sort"

	"github.com/mark3labs/tgcg/internal/schema"
)

// Imports is the sorted use-list of a payload file, split into external
// crates and items of the generated crate.
type Imports struct {
	External []string
	Crate    []string
}

// ImportsFor collects the use declarations needed by the return type and all
// parameter types of m.
func ImportsFor(m *schema.Method) Imports {
	external := map[string]struct{}{"use serde::Serialize;": {}}
	crate := map[string]struct{}{}

	add := func(t schema.Type) {
		for _, u := range usesOf(t) {
			if u.external {
				external[u.line] = struct{}{}
			} else {
				crate[u.line] = struct{}{}
			}
		}
	}
	add(m.ReturnType)
	for _, p := range m.Params {
		add(p.Type)
	}
	return Imports{External: sortedKeys(external), Crate: sortedKeys(crate)}
}

type use struct {
	line     string
	external bool
}

func usesOf(t schema.Type) []use {
	switch t.Kind {
	case schema.KindTrue:
		return []use{{line: "use crate::types::True;"}}
	case schema.KindU8, schema.KindU16, schema.KindU32, schema.KindI32,
		schema.KindU64, schema.KindI64, schema.KindF64, schema.KindBool,
		schema.KindString:
		return nil
	case schema.KindOption, schema.KindArrayOf:
		return usesOf(*t.Elem)
	case schema.KindRawTy:
		return []use{{line: "use crate::types::" + t.Name + ";"}}
	case schema.KindURL:
		return []use{{line: "use url::Url;", external: true}}
	case schema.KindDateTime:
		return []use{{line: "use chrono::{DateTime, Utc};", external: true}}
	}
	panic(schema.Unreachable(t.Kind))
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
