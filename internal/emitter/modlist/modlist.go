// Package modlist renders the payloads module listing: the mod and pub use
// lines for every payload followed by the setters re-export file.
package modlist

import (
	"strings"

	"github.com/mark3labs/tgcg/internal/render"
	"github.com/mark3labs/tgcg/internal/schema"
)

// Render returns the listing block and the setters file. The block is
// pasted into payloads.rs; the file replaces payloads/setters.rs.
func Render(s *schema.Schema, stamp render.Stamp) string {
	var b strings.Builder
	b.WriteString(render.Banner(render.BannerBlock, stamp))
	b.WriteByte('\n')
	for _, m := range s.Methods {
		b.WriteString("mod " + m.Names.Ident() + ";\n")
	}
	b.WriteByte('\n')
	for _, m := range s.Methods {
		b.WriteString("pub use " + m.Names.Ident() + "::{" + m.Names.Type() + ", " + m.Names.Type() + "Setters};\n")
	}

	b.WriteString("\n\n\n")
	b.WriteString(render.Banner(render.BannerFile, stamp))
	b.WriteString("\n#[doc(no_inline)]\npub use crate::payloads::{\n")
	for _, m := range s.Methods {
		b.WriteString("    " + m.Names.Type() + "Setters as _,\n")
	}
	b.WriteString("};\n")
	return b.String()
}
