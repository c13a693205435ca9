package patch

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mark3labs/tgcg/internal/render"
	"github.com/mark3labs/tgcg/internal/schema"
)

// APIReference is the prefix of anchors into the Bot API reference.
const APIReference = "https://core.telegram.org/bots/api#"

// lower-case link keys that are ordinary words rather than method names
var genericWords = map[string]bool{
	"update": true,
	"games":  true,
	"videos": true,
	"photos": true,
}

// keys whose target does not follow from their spelling
var linkOverrides = map[string]string{
	"unbanned": "crate::payloads::UnbanChatMember",
}

var defaultRules = []Rule{
	{
		Target: AnyMethod(All),
		Op:     ReplaceLink("More info on Sending Files »", "crate::types::InputFile"),
	},
	{
		Target: AnyMethod(All),
		Op:     Custom("intra_links", IntraLinks),
	},
	{
		Target: ExactMethod("addStickerToSet"),
		Op:     Replace("You **must** use exactly one of the fields _png\\_sticker_ or _tgs\\_sticker_. ", ""),
	},
}

// DefaultRules returns the built-in rule table in application order.
func DefaultRules() []Rule {
	out := make([]Rule, len(defaultRules))
	copy(out, defaultRules)
	return out
}

// IntraLinks turns Bot API reference anchors into rustdoc intra-doc links.
//
// A key starting with a lower-case letter names a method and is pointed at
// crate::payloads::<Key>; anything else names a type and is pointed at
// crate::types::<Key>. Keys containing separators are prose and are left
// alone. Rewritten keys are backtick-quoted both in the body and in the link
// table.
func IntraLinks(doc *schema.Doc) error {
	for _, key := range doc.LinkKeys() {
		url := doc.Links[key]
		if !strings.HasPrefix(url, APIReference) || strings.ContainsAny(key, "-_. ") || key == "" {
			continue
		}
		if target, ok := linkOverrides[key]; ok {
			doc.Links[key] = target
			continue
		}

		var name, path string
		if first, _ := utf8.DecodeRuneInString(key); unicode.IsLower(first) && !genericWords[key] {
			name = render.Upper(key)
			path = "crate::payloads::" + name
		} else {
			name = key
			path = "crate::types::" + name
		}

		quoted := "`" + name + "`"
		doc.Md = strings.ReplaceAll(doc.Md, "["+key+"]", "["+quoted+"]")
		delete(doc.Links, key)
		doc.Links[quoted] = path
	}
	return nil
}

// Summary lists the rules in order, one line each, for verbose logging.
func Summary(rules []Rule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.String()
	}
	return out
}
