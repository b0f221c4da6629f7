// Package hub is a typed client for the spec hub HTTP API: listing,
// creating and updating named OpenAPI specs, and triggering collection
// generation from them.
//
// The accepted request schema for create/update drifts between hub
// versions, so writes are negotiated through an ordered list of candidate
// body shapes (see variants.go).
package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 60 * time.Second

// Document is the payload for a create or update: opaque spec content plus
// the metadata the hub files it under.
type Document struct {
	Name     string
	Type     string // e.g. "openapi3"
	Language string // "yaml" or "json"
	Content  string
}

// SpecRef identifies a spec instance known to the hub. The hub does not
// enforce name uniqueness; several refs may share a name.
type SpecRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Generation is the metadata the hub reports for a generation job. The
// shape is not stable across hub versions, so it stays a loose map.
type Generation map[string]any

// Keys returns the generation metadata's top-level keys, sorted.
func (g Generation) Keys() []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Client talks to the spec hub. It holds no per-run state and is safe to
// reuse across calls.
type Client struct {
	baseURL  string
	apiKey   string
	httpc    *http.Client
	variants []Variant
	logf     func(format string, args ...any)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithTimeout bounds every hub call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpc.Timeout = d }
}

// WithVariants replaces the write-body variant set.
func WithVariants(variants []Variant) Option {
	return func(c *Client) { c.variants = variants }
}

// WithLogf redirects the client's diagnostic output.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(c *Client) { c.logf = logf }
}

// NewClient creates a hub client for the given API root and credential.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		httpc:    &http.Client{Timeout: defaultTimeout},
		variants: DefaultVariants(),
		logf:     log.Printf,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListSpecs returns every spec in the workspace, in whatever order the hub
// reports them.
func (c *Client) ListSpecs(ctx context.Context, workspaceID string) ([]SpecRef, error) {
	raw, err := c.do(ctx, http.MethodGet, "/specs", url.Values{"workspaceId": {workspaceID}}, nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Specs []SpecRef `json:"specs"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &APIError{Err: fmt.Errorf("decoding spec list: %w", err)}
	}
	return resp.Specs, nil
}

// CreateSpec creates a new spec in the workspace, negotiating the request
// body shape, and returns the ref the hub assigned.
func (c *Client) CreateSpec(ctx context.Context, workspaceID string, doc Document) (SpecRef, error) {
	id, err := c.writeSpec(ctx, http.MethodPost, "/specs", url.Values{"workspaceId": {workspaceID}}, doc, true)
	if err != nil {
		return SpecRef{}, err
	}
	return SpecRef{ID: id, Name: doc.Name}, nil
}

// UpdateSpec replaces the content of an existing spec. Repeating the call
// is safe; an empty response body counts as success.
func (c *Client) UpdateSpec(ctx context.Context, specID string, doc Document) error {
	_, err := c.writeSpec(ctx, http.MethodPut, "/specs/"+specID, nil, doc, false)
	return err
}

// TriggerGeneration fires a collection-generation job for the spec and
// returns whatever metadata the hub reports. It does not wait for the job.
func (c *Client) TriggerGeneration(ctx context.Context, specID string) (Generation, error) {
	raw, err := c.do(ctx, http.MethodPost, "/specs/"+specID+"/generations/collection", nil, map[string]any{})
	if err != nil {
		return nil, err
	}
	gen := Generation{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &gen); err != nil {
			return nil, &APIError{Err: fmt.Errorf("decoding generation response: %w", err)}
		}
	}
	return gen, nil
}

// do issues one request and returns the response body on 2xx. Failures are
// classified per the error taxonomy: 401/403 AuthError, 5xx and timeouts
// TransientError, everything else APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &APIError{Err: fmt.Errorf("encoding request body: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, &APIError{Err: err}
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpc.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &TransientError{Timeout: true, Err: err}
		}
		return nil, &APIError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Err: fmt.Errorf("reading response body: %w", err)}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{StatusCode: resp.StatusCode, Body: string(raw)}
	case resp.StatusCode >= 500:
		return nil, &TransientError{StatusCode: resp.StatusCode, Err: fmt.Errorf("HTTP %d calling %s: %s", resp.StatusCode, u, raw)}
	default:
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
