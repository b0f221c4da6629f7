package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Variant is one candidate encoding of the create/update intent into a
// concrete request body. Variants are tried in order; the next one is only
// attempted after the previous one failed.
type Variant struct {
	// Name labels the variant in diagnostics.
	Name string
	// Encode serializes the document into this variant's body shape.
	Encode func(doc Document) any
}

// DefaultVariants returns the known body shapes in priority order. The hub
// has accepted different schemas across versions and accounts; first
// success wins, with no check that the "correct" shape was used.
func DefaultVariants() []Variant {
	return []Variant{
		{
			Name: "flat",
			Encode: func(d Document) any {
				return map[string]any{
					"name":     d.Name,
					"type":     d.Type,
					"language": d.Language,
					"schema":   d.Content,
				}
			},
		},
		{
			Name: "file",
			Encode: func(d Document) any {
				return map[string]any{
					"specName": d.Name,
					"specType": d.Type,
					"filePath": d.Name + "." + fileExt(d.Language),
					"content":  d.Content,
				}
			},
		},
		{
			Name: "wrapped",
			Encode: func(d Document) any {
				return map[string]any{
					"spec": map[string]any{
						"name":     d.Name,
						"type":     d.Type,
						"language": d.Language,
						"schema":   d.Content,
					},
				}
			},
		},
	}
}

func fileExt(language string) string {
	if language == "json" {
		return "json"
	}
	return "yaml"
}

// writeSpec issues the write once per variant, in order, stopping at the
// first success. With wantID set the response must yield a spec id
// (create); otherwise an empty 2xx body is success (update). Intermediate
// failures are logged and suppressed; if every variant fails, the last
// error is surfaced in a single APIError.
func (c *Client) writeSpec(ctx context.Context, method, path string, query url.Values, doc Document, wantID bool) (string, error) {
	var last error
	for _, v := range c.variants {
		raw, err := c.do(ctx, method, path, query, v.Encode(doc))
		if err == nil {
			if wantID {
				id, perr := extractSpecID(raw)
				if perr == nil {
					return id, nil
				}
				err = perr
			} else {
				perr := ensureJSONBody(raw)
				if perr == nil {
					return "", nil
				}
				err = perr
			}
		}
		last = err
		c.logf("spec write with %q payload failed: %v", v.Name, err)
	}
	return "", &APIError{Err: fmt.Errorf("no accepted payload shape (tried %d): %w", len(c.variants), last)}
}

// ensureJSONBody validates a 2xx response that needs no identifier. An
// empty body is success; a non-empty body must at least be valid JSON or
// the variant is treated as failed.
func ensureJSONBody(raw []byte) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if !json.Valid(raw) {
		return fmt.Errorf("unparseable spec response: %s", raw)
	}
	return nil
}

// extractSpecID pulls the spec identifier out of a successful write
// response. Two envelopes are recognized: nested under "spec", or a
// top-level string "id". Anything else is unparseable.
func extractSpecID(raw []byte) (string, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return "", fmt.Errorf("unparseable spec response: %w", err)
	}
	if specRaw, ok := top["spec"]; ok {
		var ref SpecRef
		if err := json.Unmarshal(specRaw, &ref); err == nil && ref.ID != "" {
			return ref.ID, nil
		}
	}
	if idRaw, ok := top["id"]; ok {
		var id string
		if err := json.Unmarshal(idRaw, &id); err == nil && id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("unexpected spec response: %s", raw)
}
