package hub_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techcorp/spechub-sync/internal/hub"
)

const testAPIKey = "PMAK-test-key"

func newTestClient(t *testing.T, handler http.Handler) (*hub.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := hub.NewClient(server.URL, testAPIKey, hub.WithLogf(t.Logf))
	return client, server
}

func testDocument() hub.Document {
	return hub.Document{
		Name:     "Payments API (Spec Hub)",
		Type:     "openapi3",
		Language: "yaml",
		Content:  "openapi: 3.0.0\n",
	}
}

func TestListSpecs(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/specs", r.URL.Path)
		assert.Equal(t, "ws-1", r.URL.Query().Get("workspaceId"))
		assert.Equal(t, testAPIKey, r.Header.Get("X-Api-Key"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"specs":[{"id":"a","name":"Y"},{"id":"b","name":"Y"}]}`))
	}))

	refs, err := client.ListSpecs(context.Background(), "ws-1")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, hub.SpecRef{ID: "a", Name: "Y"}, refs[0])
	assert.Equal(t, hub.SpecRef{ID: "b", Name: "Y"}, refs[1])
}

func TestListSpecsAuthError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))

	_, err := client.ListSpecs(context.Background(), "ws-1")
	var authErr *hub.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
}

func TestListSpecsServerErrorIsTransient(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))

	_, err := client.ListSpecs(context.Background(), "ws-1")
	var transient *hub.TransientError
	require.ErrorAs(t, err, &transient)
	assert.Equal(t, http.StatusBadGateway, transient.StatusCode)
	assert.False(t, transient.Timeout)
}

func TestTimeoutIsTransientAndMarked(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.ListSpecs(ctx, "ws-1")
	var transient *hub.TransientError
	require.ErrorAs(t, err, &transient)
	assert.True(t, transient.Timeout)
}

func TestCreateSpecFirstVariantWins(t *testing.T) {
	var requests int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "name")
		assert.Contains(t, body, "schema")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spec":{"id":"spec-123","name":"Payments API (Spec Hub)"}}`))
	}))

	ref, err := client.CreateSpec(context.Background(), "ws-1", testDocument())
	require.NoError(t, err)
	assert.Equal(t, "spec-123", ref.ID)
	assert.Equal(t, 1, requests, "first success must stop the variant loop")
}

func TestCreateSpecFallsThroughToLaterVariant(t *testing.T) {
	var requests int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			http.Error(w, `{"error":"unsupported payload"}`, http.StatusBadRequest)
			return
		}
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "spec", "third variant wraps the payload")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"spec-456"}`))
	}))

	ref, err := client.CreateSpec(context.Background(), "ws-1", testDocument())
	require.NoError(t, err)
	assert.Equal(t, "spec-456", ref.ID)
	assert.Equal(t, 3, requests)
}

func TestCreateSpecAllVariantsExhausted(t *testing.T) {
	var requests int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		http.Error(w, "nope: attempt "+string(rune('0'+requests)), http.StatusUnprocessableEntity)
	}))

	_, err := client.CreateSpec(context.Background(), "ws-1", testDocument())
	var apiErr *hub.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 3, requests, "every variant gets exactly one attempt")
	assert.Contains(t, err.Error(), "attempt 3", "aggregate error carries the last failure")
	assert.NotContains(t, err.Error(), "attempt 1")
}

func TestCreateSpecUnparseableSuccessCountsAsFailure(t *testing.T) {
	var requests int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		if requests == 1 {
			// 2xx but no recognizable identifier: must fall through.
			_, _ = w.Write([]byte(`{"status":"ok"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"spec-789"}`))
	}))

	ref, err := client.CreateSpec(context.Background(), "ws-1", testDocument())
	require.NoError(t, err)
	assert.Equal(t, "spec-789", ref.ID)
	assert.Equal(t, 2, requests)
}

func TestUpdateSpecAcceptsEmptyBody(t *testing.T) {
	var requests int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/specs/spec-123", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	err := client.UpdateSpec(context.Background(), "spec-123", testDocument())
	require.NoError(t, err)
	assert.Equal(t, 1, requests)
}

func TestUpdateSpecUnparseableBodyAdvancesVariant(t *testing.T) {
	var requests int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		if requests == 1 {
			// 2xx but the body is not JSON: variant must be retried.
			_, _ = w.Write([]byte(`<html>ok</html>`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	err := client.UpdateSpec(context.Background(), "spec-123", testDocument())
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
}

func TestUpdateSpecJSONBodySucceeds(t *testing.T) {
	var requests int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spec":{"id":"spec-123"}}`))
	}))

	err := client.UpdateSpec(context.Background(), "spec-123", testDocument())
	require.NoError(t, err)
	assert.Equal(t, 1, requests)
}

func TestTriggerGeneration(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/specs/spec-123/generations/collection", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"task":{"id":"t-1"},"status":"queued"}`))
	}))

	gen, err := client.TriggerGeneration(context.Background(), "spec-123")
	require.NoError(t, err)
	assert.Equal(t, []string{"status", "task"}, gen.Keys())
}

func TestTriggerGenerationFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such spec", http.StatusNotFound)
	}))

	_, err := client.TriggerGeneration(context.Background(), "spec-404")
	var apiErr *hub.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.False(t, errors.As(err, new(*hub.AuthError)))
}
