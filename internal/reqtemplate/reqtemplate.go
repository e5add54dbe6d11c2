// Package reqtemplate renders the concrete upstream request (method, URL,
// headers, query, body) for @http/@grpc/@graphQL resolvers from a
// compiled RequestTemplate plus the current {parent, vars} binding,
// following the teacher's grpcrt.mergeArgsWithSource/setMessageFieldsByJSON
// argument-construction shape generalized across transports.
package reqtemplate

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/fluxweld/gatewing/internal/gqltemplate"
)

// KV is an ordered header/query template entry.
type KV struct {
	Name     string
	Template gqltemplate.Template
}

// RequestTemplate is the compiled, render-ready shape of one resolver's
// outbound call.
type RequestTemplate struct {
	Method       string
	URL          gqltemplate.Template
	Headers      []KV
	Query        []KV
	Body         *gqltemplate.Template
	InputSchema  *jsonschema.Schema
	OutputSchema *jsonschema.Schema
	GroupBy      []string
}

// ConcreteRequest is a fully rendered, transport-agnostic request ready for
// dispatch.
type ConcreteRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Query   map[string]string
	Body    string
}

// Render substitutes every template field against vars (typically
// {"parent": ..., "vars": ...}), validating the assembled body against
// InputSchema when one is configured.
func (t *RequestTemplate) Render(vars map[string]any) (ConcreteRequest, error) {
	lookup := gqltemplate.PathString(vars)
	out := ConcreteRequest{
		Method:  t.Method,
		URL:     t.URL.Render(lookup),
		Headers: make(map[string]string, len(t.Headers)),
		Query:   make(map[string]string, len(t.Query)),
	}
	for _, h := range t.Headers {
		out.Headers[h.Name] = h.Template.Render(lookup)
	}
	for _, q := range t.Query {
		out.Query[q.Name] = q.Template.Render(lookup)
	}
	if t.Body != nil {
		out.Body = t.Body.Render(lookup)
		if t.InputSchema != nil {
			if err := validateJSON(t.InputSchema, out.Body); err != nil {
				return ConcreteRequest{}, fmt.Errorf("reqtemplate: input schema violation: %w", err)
			}
		}
	}
	return out, nil
}

// ValidateOutput checks a decoded upstream response body against
// OutputSchema, when one is configured; a nil OutputSchema always passes.
func (t *RequestTemplate) ValidateOutput(body string) error {
	if t.OutputSchema == nil {
		return nil
	}
	return validateJSON(t.OutputSchema, body)
}

func validateJSON(schema *jsonschema.Schema, body string) error {
	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return schema.Validate(v)
}

// CompileSchema parses a JSON-schema document (already decoded to a Go
// value) into a *jsonschema.Schema for InputSchema/OutputSchema.
func CompileSchema(name string, doc any) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		return nil, err
	}
	return c.Compile(name)
}
