package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	eventbus "github.com/fluxweld/gatewing/internal/eventbus"
	events "github.com/fluxweld/gatewing/internal/events"
	language "github.com/fluxweld/gatewing/internal/language"
	reqid "github.com/fluxweld/gatewing/internal/reqid"

	"github.com/fluxweld/gatewing/internal/blueprint"
	"github.com/fluxweld/gatewing/internal/evalir"
	"github.com/fluxweld/gatewing/internal/jit"
	"github.com/fluxweld/gatewing/internal/planner"
)

// GatewayHandler is the gateway's own GraphQL endpoint, serving blueprint-
// compiled resolvers through the JIT planner/executor instead of the
// teacher's static executor.Runtime. It uses the package's shared request
// parsing, batching, CORS, and GraphiQL helpers from server.go.
type GatewayHandler struct {
	bp  *blueprint.Blueprint
	opt Options

	// AuthOK, when set, backs @protected field checks; nil means every
	// request is treated as unauthenticated.
	AuthOK func(ctx context.Context) bool
}

// NewGateway creates a GatewayHandler serving bp.
func NewGateway(bp *blueprint.Blueprint, opts ...Option) *GatewayHandler {
	op := Options{Timeout: 10 * time.Second, GraphiQL: true}
	for _, f := range opts {
		f(&op)
	}
	return &GatewayHandler{bp: bp, opt: op}
}

func (h *GatewayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}
	ctx, _ = reqid.NewContext(ctx)

	status := http.StatusOK
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Duration: time.Since(start)})
	}()

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, errorResponse(nil, &language.Error{Message: "method not allowed"}), h.opt.Pretty)
		return
	}

	if r.Method == http.MethodGet && h.opt.GraphiQL && acceptsHTML(r.Header.Get("Accept")) && r.URL.Query().Get("query") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(graphiqlPage)
		return
	}

	req, batch, berr := parseRequest(r, h.opt.MaxBodyBytes)
	if berr != nil {
		status = http.StatusBadRequest
		if berr.Message == errBodyTooLargeMessage {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorResponse(nil, berr), h.opt.Pretty)
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	if batch != nil {
		out := make([]any, len(batch))
		for i := range batch {
			out[i] = h.executeOne(ctx, r, batch[i])
		}
		writeJSON(w, status, out, h.opt.Pretty)
		return
	}

	writeJSON(w, status, h.executeOne(ctx, r, req), h.opt.Pretty)
}

func (h *GatewayHandler) executeOne(ctx context.Context, r *http.Request, req GraphQLRequest) any {
	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		if ge, ok := err.(*language.Error); ok {
			return errorResponse(nil, ge)
		}
		return errorResponse(nil, &language.Error{Message: err.Error()})
	}

	plan, _, err := planner.Plan(doc, req.OperationName, req.Variables, h.bp)
	if err != nil {
		return errorResponse(nil, &language.Error{Message: err.Error()})
	}

	rc := &evalir.RequestContext{
		Headers: r.Header,
		Cookies: cookieMap(r),
		Vars:    req.Variables,
		AuthOK:  h.AuthOK,
	}

	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName})
	res := jit.New().Execute(ctx, plan, rc)
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		Duration:      time.Since(start),
	})

	return toGatewayResult(res)
}

func cookieMap(r *http.Request) map[string]string {
	out := map[string]string{}
	for _, c := range r.Cookies() {
		out[c.Name] = c.Value
	}
	return out
}

func toGatewayResult(res *jit.Response) specResult {
	out := specResult{Data: res.Data}
	if len(res.Errors) == 0 {
		return out
	}
	out.Errors = make([]specError, len(res.Errors))
	for i, e := range res.Errors {
		out.Errors[i] = specError{Message: e.Message, Path: e.Path}
	}
	return out
}

// ServeHealth answers the gateway's liveness/readiness probe.
func ServeHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"}, false)
}

// RESTGateway dispatches a REST-over-GraphQL request: the incoming path and
// method select a configured operation template, whose variables are
// filled from path parameters, query string, and JSON body, then the
// result is executed exactly like a GraphQL request and unwrapped to a
// plain JSON body for the REST caller.
type RESTGateway struct {
	gateway *GatewayHandler
	routes  []RESTRoute
}

// RESTRoute binds an HTTP method + path template (e.g. "/users/{id}") to a
// named GraphQL operation document.
type RESTRoute struct {
	Method        string
	PathTemplate  string
	Query         string
	OperationName string
	segments      []string
}

// NewRESTGateway compiles routes' path templates and wraps gw.
func NewRESTGateway(gw *GatewayHandler, routes []RESTRoute) *RESTGateway {
	compiled := make([]RESTRoute, len(routes))
	for i, rt := range routes {
		rt.segments = strings.Split(strings.Trim(rt.PathTemplate, "/"), "/")
		compiled[i] = rt
	}
	return &RESTGateway{gateway: gw, routes: compiled}
}

func (g *RESTGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route, pathVars, ok := g.match(r.Method, r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	vars := map[string]any{}
	for k, v := range pathVars {
		vars[k] = v
	}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			vars[k] = v[0]
		}
	}
	if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			for k, v := range body {
				vars[k] = v
			}
		}
	}

	res := g.gateway.executeOne(r.Context(), r, GraphQLRequest{
		Query:         route.Query,
		OperationName: route.OperationName,
		Variables:     vars,
	})
	writeJSON(w, http.StatusOK, restUnwrap(res), g.gateway.opt.Pretty)
}

func (g *RESTGateway) match(method, path string) (RESTRoute, map[string]string, bool) {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for _, rt := range g.routes {
		if rt.Method != method || len(rt.segments) != len(segs) {
			continue
		}
		vars := map[string]string{}
		matched := true
		for i, seg := range rt.segments {
			if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
				vars[strings.Trim(seg, "{}")] = segs[i]
				continue
			}
			if seg != segs[i] {
				matched = false
				break
			}
		}
		if matched {
			return rt, vars, true
		}
	}
	return RESTRoute{}, nil, false
}

// restUnwrap flattens a GraphQL specResult's single top-level field into a
// bare JSON body, the REST-over-GraphQL convention: a REST route's backing
// query is expected to select exactly one root field.
func restUnwrap(res any) any {
	sr, ok := res.(specResult)
	if !ok {
		return res
	}
	if len(sr.Errors) > 0 {
		return sr
	}
	m, ok := sr.Data.(*jit.OrderedMap)
	if !ok || m.Len() != 1 {
		return sr.Data
	}
	v, _ := m.Get(m.Keys()[0])
	return v
}
