// Package requester renders the Requester trait surface and the
// requester_forward! macro. Both take generic parameters for the required
// arguments that accept anything convertible, named by MinimalPrefixes.
package requester

import (
	"bytes"
	"embed"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/cockroachdb/errors"

	"github.com/mark3labs/tgcg/internal/classify"
	"github.com/mark3labs/tgcg/internal/schema"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var templates = template.Must(
	template.New("requester").Funcs(sprig.TxtFuncMap()).ParseFS(templatesFS, "templates/*.tmpl"),
)

// Generic is one type parameter of a requester method.
type Generic struct {
	// Param is the parameter the generic stands for.
	Param string
	// Name is the derived type parameter name, e.g. "C".
	Name string
	// Bound is the trait bound, e.g. "Into<ChatId>".
	Bound string
}

// Generics lists the type parameters of m in parameter declaration order.
// Only required parameters with a non-identity conversion become generic.
func Generics(m *schema.Method) ([]Generic, error) {
	type candidate struct {
		param string
		conv  classify.Convert
	}
	var cands []candidate
	var names []string
	for _, p := range m.Params {
		if p.Optional() {
			continue
		}
		conv := classify.ConversionFor(p.Type)
		if conv.Strategy == classify.Identity {
			continue
		}
		cands = append(cands, candidate{param: p.Name, conv: conv})
		names = append(names, p.Name)
	}
	if len(cands) == 0 {
		return nil, nil
	}

	prefixes, err := MinimalPrefixes(names)
	if err != nil {
		return nil, errors.Wrapf(err, "method %s", m.Names.Original())
	}
	out := make([]Generic, 0, len(cands))
	for _, c := range cands {
		out = append(out, Generic{Param: c.param, Name: prefixes[c.param], Bound: bound(c.conv)})
	}
	return out, nil
}

func bound(c classify.Convert) string {
	switch c.Strategy {
	case classify.Into:
		return "Into<" + c.Type.String() + ">"
	case classify.Collect:
		return "IntoIterator<Item = " + c.Type.String() + ">"
	case classify.Identity:
		return ""
	}
	panic(errors.AssertionFailedf("requester: unknown strategy %d", c.Strategy))
}

type methodView struct {
	Type         string
	Ident        string
	Generics     []Generic
	GenericNames []string
	Args         []string
	Bounds       []string
}

type surfaceView struct {
	Banner  string
	Methods []methodView
}

func viewOf(m *schema.Method) (methodView, error) {
	generics, err := Generics(m)
	if err != nil {
		return methodView{}, err
	}
	byParam := make(map[string]string, len(generics))
	v := methodView{Type: m.Names.Type(), Ident: m.Names.Ident(), Generics: generics}
	for _, g := range generics {
		byParam[g.Param] = g.Name
		v.GenericNames = append(v.GenericNames, g.Name)
		v.Bounds = append(v.Bounds, g.Name+": "+g.Bound)
	}
	for _, p := range m.Params {
		if p.Optional() {
			continue
		}
		ty := p.Type.String()
		if g, ok := byParam[p.Name]; ok {
			ty = g
		}
		v.Args = append(v.Args, p.Name+": "+ty)
	}
	return v, nil
}

func execute(name string, s *schema.Schema, banner string) ([]byte, error) {
	view := surfaceView{Banner: banner, Methods: make([]methodView, 0, len(s.Methods))}
	for i := range s.Methods {
		v, err := viewOf(&s.Methods[i])
		if err != nil {
			return nil, err
		}
		view.Methods = append(view.Methods, v)
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, view); err != nil {
		return nil, errors.Wrapf(err, "execute %s", name)
	}
	return buf.Bytes(), nil
}

// Trait renders the body of the Requester trait: an associated request type
// and a method declaration per schema method, in schema order.
func Trait(s *schema.Schema, banner string) ([]byte, error) {
	return execute("requester.rs.tmpl", s, banner)
}

// ForwardMacro renders requester_forward!, which implements every requester
// method by handing its arguments to a delegate macro.
func ForwardMacro(s *schema.Schema, banner string) ([]byte, error) {
	return execute("forward.rs.tmpl", s, banner)
}
