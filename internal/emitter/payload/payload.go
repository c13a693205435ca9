// Package payload renders one impl_payload! file per schema method and
// writes the set to a payloads directory.
package payload

import (
	"bytes"
	"embed"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/cockroachdb/errors"

	"github.com/mark3labs/tgcg/internal/classify"
	"github.com/mark3labs/tgcg/internal/render"
	"github.com/mark3labs/tgcg/internal/schema"
)

//go:embed templates/*
var templatesFS embed.FS

var payloadTmpl = template.Must(
	template.New("payload.rs.tmpl").Funcs(sprig.TxtFuncMap()).ParseFS(templatesFS, "templates/payload.rs.tmpl"),
)

const (
	methodDocIndent = "    "
	fieldDocIndent  = "            "
)

// Unit is one generated payload file.
type Unit struct {
	// FileName is <identifier>.rs.
	FileName string
	Method   string
	Content  []byte
}

type fieldView struct {
	Doc    string
	Attrs  []string
	Name   string
	Type   string
	Suffix string
}

type unitView struct {
	Banner      string
	Imports     classify.Imports
	Multipart   []string
	TimeoutSecs string
	Doc         string
	Derive      string
	Type        string
	Return      string
	Required    []fieldView
	Optional    []fieldView
}

// Generate renders every method of s, in schema order. banner is placed
// verbatim at the top of each unit.
func Generate(s *schema.Schema, banner string) ([]Unit, error) {
	units := make([]Unit, 0, len(s.Methods))
	for i := range s.Methods {
		m := &s.Methods[i]
		content, err := renderMethod(m, banner)
		if err != nil {
			return nil, errors.Wrapf(err, "payload %s", m.Names.Type())
		}
		units = append(units, Unit{
			FileName: m.Names.Ident() + ".rs",
			Method:   m.Names.Type(),
			Content:  content,
		})
	}
	return units, nil
}

func renderMethod(m *schema.Method, banner string) ([]byte, error) {
	v := unitView{
		Banner:    banner,
		Imports:   classify.ImportsFor(m),
		Multipart: classify.MultipartFields(m),
		Doc:       render.Doc(m.Doc, m.Sibling, methodDocIndent),
		Derive:    classify.DeriveLine(m),
		Type:      m.Names.Type(),
		Return:    m.ReturnType.String(),
	}
	if m.Names.Ident() == "get_updates" {
		v.TimeoutSecs = "timeout"
	}

	for _, p := range m.Params {
		inner, optional := p.Type.Unwrap()
		f := fieldView{
			Doc:    render.Doc(p.Descr, "", fieldDocIndent),
			Attrs:  classify.SerializationHints(p).Attributes(),
			Name:   p.Name,
			Type:   inner.String(),
			Suffix: classify.ConversionFor(inner).Suffix(),
		}
		if optional {
			v.Optional = append(v.Optional, f)
		} else {
			v.Required = append(v.Required, f)
		}
	}

	var buf bytes.Buffer
	if err := payloadTmpl.Execute(&buf, v); err != nil {
		return nil, errors.Wrap(err, "execute template")
	}
	return buf.Bytes(), nil
}
