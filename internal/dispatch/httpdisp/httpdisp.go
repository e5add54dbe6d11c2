// Package httpdisp implements the @http resolver family's Requester: a
// shared HTTP client pool plus retry/backoff, grounded on the teacher's
// grpctp.Transport connection-pooling pattern adapted to *http.Client.
package httpdisp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/fluxweld/gatewing/internal/eventbus"
	"github.com/fluxweld/gatewing/internal/events"
	"github.com/fluxweld/gatewing/internal/reqtemplate"
)

// Options configures the shared transport, mirroring grpctp.Options'
// per-endpoint pool sizing knobs.
type Options struct {
	MaxIdleConnsPerHost int
	Timeout             time.Duration
	MaxRetries          int
}

func DefaultOptions() Options {
	return Options{MaxIdleConnsPerHost: 32, Timeout: 10 * time.Second, MaxRetries: 2}
}

// Dispatcher is the httpdisp-backed evalir.Requester.
type Dispatcher struct {
	client *http.Client
	opts   Options
}

func New(opts Options) *Dispatcher {
	if opts.MaxIdleConnsPerHost == 0 {
		opts = DefaultOptions()
	}
	tr := &http.Transport{MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost}
	return &Dispatcher{
		client: &http.Client{Transport: tr, Timeout: opts.Timeout},
		opts:   opts,
	}
}

// Do renders tpl against vars, issues the HTTP call with bounded retry, and
// decodes a JSON response body into a Go value.
func (d *Dispatcher) Do(ctx context.Context, tpl *reqtemplate.RequestTemplate, vars map[string]any) (any, error) {
	creq, err := tpl.Render(vars)
	if err != nil {
		return nil, err
	}

	op := func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, creq.Method, creq.URL, bodyReader(creq.Body))
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		for k, v := range creq.Headers {
			req.Header.Set(k, v)
		}
		q := req.URL.Query()
		for k, v := range creq.Query {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()

		eventbus.Publish(ctx, events.HTTPUpstreamStart{Method: creq.Method, URL: creq.URL})
		start := time.Now()
		resp, err := d.client.Do(req)
		if err != nil {
			eventbus.Publish(ctx, events.HTTPUpstreamFinish{Method: creq.Method, URL: creq.URL, Duration: time.Since(start), Err: err})
			return nil, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		eventbus.Publish(ctx, events.HTTPUpstreamFinish{Method: creq.Method, URL: creq.URL, Status: resp.StatusCode, Duration: time.Since(start)})
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("httpdisp: upstream %s returned %d", creq.URL, resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return nil, backoff.Permanent(fmt.Errorf("httpdisp: upstream %s returned %d", creq.URL, resp.StatusCode))
		}
		if err := tpl.ValidateOutput(string(body)); err != nil {
			return nil, backoff.Permanent(err)
		}
		var v any
		if len(body) > 0 {
			if err := json.Unmarshal(body, &v); err != nil {
				return nil, backoff.Permanent(fmt.Errorf("httpdisp: decode response: %w", err))
			}
		}
		return v, nil
	}

	return backoff.Retry(ctx, op, backoff.WithMaxTries(uint(d.opts.MaxRetries+1)))
}

func bodyReader(body string) io.Reader {
	if body == "" {
		return nil
	}
	return bytes.NewBufferString(body)
}
