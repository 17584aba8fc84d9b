package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pod-service/internal/logger"
)

func outputBody(text string) string {
	body, _ := json.Marshal(map[string]any{
		"output": []map[string]any{{
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "output_text", "text": text},
			},
		}},
	})
	return string(body)
}

func newTestClient(t *testing.T, url string, retries int) Client {
	t.Helper()
	c := NewClient(Options{APIKey: "k", BaseURL: url, Model: "m", Timeout: time.Second, MaxRetries: retries}, logger.Nop())
	c.(*client).backoff = time.Millisecond
	return c
}

func TestGenerateJSONSendsSchema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/responses", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		format := req["text"].(map[string]any)["format"].(map[string]any)
		assert.Equal(t, "json_schema", format["type"])
		assert.Equal(t, "pod_match", format["name"])
		_, _ = w.Write([]byte(outputBody(`{"score":80}`)))
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv.URL, 0).GenerateJSON(context.Background(), "sys", "user", "pod_match", map[string]any{"type": "object"})
	require.NoError(t, err)
	assert.Equal(t, `{"score":80}`, out)
}

func TestGenerateTextRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(outputBody("hello")))
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv.URL, 2).GenerateText(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGenerateTextDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 3).GenerateText(context.Background(), "sys", "user")
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEmptyOutputIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 0).GenerateText(context.Background(), "sys", "user")
	assert.Error(t, err)
}

func TestDisabledClient(t *testing.T) {
	c := NewClient(Options{}, logger.Nop())
	_, err := c.GenerateText(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = c.GenerateJSON(context.Background(), "s", "u", "n", map[string]any{})
	assert.ErrorIs(t, err, ErrDisabled)
}
