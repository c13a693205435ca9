package requester

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/mark3labs/tgcg/internal/render"
)

// ErrAmbiguous marks a parameter set whose generic names cannot be told
// apart. Match it with github.com/cockroachdb/errors.Is.
var ErrAmbiguous = errors.New("ambiguous generic parameter names")

// sentinel shares no first character with any parameter name.
const sentinel = "\x00"

// MinimalPrefixes derives a short generic name for every element of names.
//
// The names are sorted and each one is cut to its shortest prefix that
// differs from its successor (the last one is compared with its
// predecessor, a lone name with a sentinel), then the first character is
// upper-cased. ["chat_id", "sticker"] yields C and S.
//
// The result maps each input name to its generic name. Duplicate inputs or
// two inputs deriving the same name are reported as ErrAmbiguous.
func MinimalPrefixes(names []string) (map[string]string, error) {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	out := make(map[string]string, len(sorted))
	for i, name := range sorted {
		if name == "" {
			return nil, errors.Mark(errors.New("empty parameter name"), ErrAmbiguous)
		}
		if i > 0 && sorted[i-1] == name {
			return nil, errors.Mark(errors.Newf("duplicate parameter %q", name), ErrAmbiguous)
		}

		var neighbour string
		switch {
		case len(sorted) == 1:
			neighbour = sentinel
		case i == len(sorted)-1:
			neighbour = sorted[i-1]
		default:
			neighbour = sorted[i+1]
		}
		out[name] = render.Upper(minPrefix(name, neighbour))
	}

	seen := make(map[string]string, len(out))
	for _, name := range sorted {
		g := out[name]
		if other, ok := seen[g]; ok {
			err := errors.Newf("parameters %q and %q both map to %s", other, name, g)
			return nil, errors.Mark(err, ErrAmbiguous)
		}
		seen[g] = name
	}
	return out, nil
}

// minPrefix returns l up to and including the first rune that differs from
// r. When one name is a prefix of the other the cut falls just past the
// shorter one, and never past the end of l.
func minPrefix(l, r string) string {
	lr, rr := []rune(l), []rune(r)
	n := len(lr)
	if len(rr) < n {
		n = len(rr)
	}
	for i := 0; i < n; i++ {
		if lr[i] != rr[i] {
			return string(lr[:i+1])
		}
	}
	if n >= len(lr) {
		n = len(lr) - 1
	}
	return string(lr[:n+1])
}
