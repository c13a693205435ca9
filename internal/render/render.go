// Package render formats schema docs as Rust doc comments and produces the
// banner placed at the top of every generated artifact.
package render

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mark3labs/tgcg/internal/schema"
)

// Upper upper-cases the first character of s and leaves the rest alone.
// Some characters upper-case to more than one rune, which unicode.ToUpper
// cannot express.
func Upper(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return cases.Upper(language.Und).String(string(r)) + s[size:]
}

// Doc renders d as /// comment lines prefixed with indent. When sibling is
// non-empty a "See also" note pointing at the sibling payload is appended.
// Links are emitted in sorted key order so output is byte-stable.
func Doc(d schema.Doc, sibling, indent string) string {
	var b strings.Builder
	line := func(text string) {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(indent)
		if text == "" {
			b.WriteString("///")
			return
		}
		b.WriteString("/// ")
		b.WriteString(text)
	}

	for _, l := range strings.Split(d.Md, "\n") {
		line(l)
	}

	if sibling != "" {
		s := Upper(sibling)
		line("")
		line("See also: [`" + s + "`](crate::payloads::" + s + ")")
	}

	if keys := d.LinkKeys(); len(keys) > 0 {
		line("")
		for _, k := range keys {
			line("[" + k + "]: " + d.Links[k])
		}
	}
	return b.String()
}
