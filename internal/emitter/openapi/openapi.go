// Package openapi describes the schema's methods as an OpenAPI 3 document so
// that tooling outside the Rust client can consume the same surface.
package openapi

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/tgcg/internal/classify"
	"github.com/mark3labs/tgcg/internal/schema"
)

const (
	serverURL     = "https://api.telegram.org/bot{token}"
	jsonType      = "application/json"
	multipartType = "multipart/form-data"
)

// Format selects the serialization of Marshal.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	// FormatSwagger2 is a Swagger 2.0 document in JSON, for older tooling.
	FormatSwagger2 Format = "swagger2"
)

// ParseFormat accepts "json", "yaml", "yml" and "swagger2", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "swagger2":
		return FormatSwagger2, nil
	}
	return "", errors.Newf("unknown openapi format %q (allowed: json, yaml, swagger2)", s)
}

// Build returns one POST operation per method, keyed by the method's
// original name.
func Build(s *schema.Schema) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   "Telegram Bot API",
			Version: s.APIVersion.Ver,
		},
		Servers: openapi3.Servers{{
			URL: serverURL,
			Variables: map[string]*openapi3.ServerVariable{
				"token": {Default: "TOKEN", Description: "bot token issued by @BotFather"},
			},
		}},
		Paths: openapi3.Paths{},
	}
	if s.APIVersion.Date != "" {
		doc.Info.Description = "Bot API " + s.APIVersion.Ver + " released " + s.APIVersion.Date + "."
	}
	for i := range s.Methods {
		m := &s.Methods[i]
		doc.Paths["/"+m.Names.Original()] = &openapi3.PathItem{Post: operation(m)}
	}
	return doc
}

func operation(m *schema.Method) *openapi3.Operation {
	op := &openapi3.Operation{
		OperationID: m.Names.Original(),
		Description: m.Doc.Md,
		Responses: openapi3.Responses{
			"200": &openapi3.ResponseRef{Value: openapi3.NewResponse().
				WithDescription("Request was successful").
				WithJSONSchema(envelope(m.ReturnType))},
		},
	}
	if m.TgCategory != "" {
		op.Tags = []string{m.TgCategory}
	}
	if m.TgDoc != "" {
		op.ExternalDocs = &openapi3.ExternalDocs{URL: m.TgDoc}
	}
	if len(m.Params) == 0 {
		return op
	}

	body := openapi3.NewObjectSchema()
	for _, p := range m.Params {
		inner, optional := p.Type.Unwrap()
		prop := schemaFor(inner)
		prop.Description = p.Descr.Md
		body.WithProperty(wireName(p.Name), prop)
		if !optional {
			body.Required = append(body.Required, wireName(p.Name))
		}
	}

	contentType := jsonType
	if classify.RequiresMultipart(m) {
		contentType = multipartType
	}
	op.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
		WithRequired(len(body.Required) > 0).
		WithContent(openapi3.NewContentWithSchema(body, []string{contentType}))}
	return op
}

func wireName(field string) string {
	if wire, escaped := schema.WireName(field); escaped {
		return wire
	}
	return field
}

func envelope(result schema.Type) *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithProperty("ok", openapi3.NewBoolSchema()).
		WithProperty("result", schemaFor(result))
	s.Required = []string{"ok"}
	return s
}

func schemaFor(t schema.Type) *openapi3.Schema {
	switch t.Kind {
	case schema.KindTrue:
		return openapi3.NewBoolSchema().WithEnum(true)
	case schema.KindU8, schema.KindU16, schema.KindU32:
		return openapi3.NewInt32Schema().WithMin(0)
	case schema.KindI32:
		return openapi3.NewInt32Schema()
	case schema.KindU64:
		return openapi3.NewInt64Schema().WithMin(0)
	case schema.KindI64:
		return openapi3.NewInt64Schema()
	case schema.KindF64:
		return openapi3.NewFloat64Schema()
	case schema.KindBool:
		return openapi3.NewBoolSchema()
	case schema.KindString:
		return openapi3.NewStringSchema()
	case schema.KindURL:
		return openapi3.NewStringSchema().WithFormat("uri")
	case schema.KindDateTime:
		s := openapi3.NewInt64Schema()
		s.Description = "Unix time"
		return s
	case schema.KindOption:
		s := schemaFor(*t.Elem)
		s.Nullable = true
		return s
	case schema.KindArrayOf:
		return openapi3.NewArraySchema().WithItems(schemaFor(*t.Elem))
	case schema.KindRawTy:
		if t.Name == "InputFile" {
			s := openapi3.NewStringSchema().WithFormat("binary")
			s.Title = t.Name
			return s
		}
		s := openapi3.NewObjectSchema()
		s.Title = t.Name
		return s
	}
	panic(schema.Unreachable(t.Kind))
}

// Marshal serializes doc. Map keys come out sorted in every format.
func Marshal(doc *openapi3.T, format Format) ([]byte, error) {
	if format == FormatSwagger2 {
		src := *doc
		if src.Components == nil {
			src.Components = &openapi3.Components{}
		}
		v2, err := openapi2conv.FromV3(&src)
		if err != nil {
			return nil, errors.Wrap(err, "convert to swagger 2.0")
		}
		data, err := json.MarshalIndent(v2, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "marshal swagger document")
		}
		return append(data, '\n'), nil
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal openapi document")
	}
	switch format {
	case FormatJSON:
		return append(data, '\n'), nil
	case FormatYAML:
		var tree any
		if err := json.Unmarshal(data, &tree); err != nil {
			return nil, errors.Wrap(err, "reload openapi document")
		}
		out, err := yaml.Marshal(tree)
		if err != nil {
			return nil, errors.Wrap(err, "marshal openapi yaml")
		}
		return out, nil
	}
	return nil, errors.Newf("unknown openapi format %q", format)
}
