// Package graphqldisp implements the @graphQL resolver family's Requester:
// a thin POST-and-unwrap client over an upstream GraphQL endpoint, reusing
// httpdisp's pooled *http.Client rather than standing up a second
// connection-pooling layer.
package graphqldisp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fluxweld/gatewing/internal/dispatch/httpdisp"
	"github.com/fluxweld/gatewing/internal/reqtemplate"
)

// Dispatcher is the graphqldisp-backed evalir.Requester.
type Dispatcher struct {
	http *httpdisp.Dispatcher
}

func New(http *httpdisp.Dispatcher) *Dispatcher { return &Dispatcher{http: http} }

// Do delegates the POST to the shared HTTP dispatcher (tpl.Method is always
// "POST", tpl.Body the rendered { query, variables } document), then
// unwraps the upstream's { data, errors } envelope — an upstream GraphQL
// error is surfaced as a Go error rather than silently passed through.
func (d *Dispatcher) Do(ctx context.Context, tpl *reqtemplate.RequestTemplate, vars map[string]any) (any, error) {
	raw, err := d.http.Do(ctx, tpl, vars)
	if err != nil {
		return nil, err
	}
	env, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("graphqldisp: unexpected upstream response shape %T", raw)
	}
	if errsRaw, ok := env["errors"]; ok {
		if errs, ok := errsRaw.([]any); ok && len(errs) > 0 {
			b, _ := json.Marshal(errs[0])
			return nil, fmt.Errorf("graphqldisp: upstream error: %s", b)
		}
	}
	return env["data"], nil
}
