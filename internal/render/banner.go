package render

import (
	"bytes"
	"strings"
)

// BannerKind names the artifact a banner sits on top of.
type BannerKind string

const (
	BannerFile  BannerKind = "file"
	BannerBlock BannerKind = "block"
	BannerMacro BannerKind = "macro"
)

const bannerLead = "// This "

// Stamp is the provenance shown in a banner. Both fields are optional.
type Stamp struct {
	// Commit of the generator, e.g. "3f2c1ab" or "3f2c1ab + local changes".
	Commit string
	// APIVersion of the schema the artifact was generated from.
	APIVersion string
}

// Banner renders the "do not edit" header for kind.
func Banner(kind BannerKind, st Stamp) string {
	lower := string(kind)
	var b strings.Builder
	b.WriteString(bannerLead + lower + " is auto generated by `tgcg`")
	if st.Commit != "" {
		b.WriteString(" (" + st.Commit + ")")
	}
	b.WriteString(" from the Bot API method schema")
	if st.APIVersion != "" {
		b.WriteString(" (Bot API " + st.APIVersion + ")")
	}
	b.WriteString(".\n")
	b.WriteString("//\n")
	b.WriteString("// **DO NOT EDIT THIS " + strings.ToUpper(lower) + "**,\n")
	b.WriteString("//\n")
	b.WriteString("// Edit `tgcg` or the schema instead.")
	return b.String()
}

// IsGenerated reports whether content starts with a file banner.
func IsGenerated(content []byte) bool {
	return bytes.HasPrefix(content, []byte(bannerLead+string(BannerFile)+" is auto generated by `tgcg`"))
}
