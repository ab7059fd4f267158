package llamacpp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/drawing-analyzer/internal/errs"
	"github.com/menta2k/drawing-analyzer/pkg/client"
)

func TestTranscribe(t *testing.T) {
	var got ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"Ø25 ±0.1mm"}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL + "/")
	require.NoError(t, err)

	text, err := c.Transcribe(context.Background(), client.Request{
		Model:    "qwen3-vl",
		System:   "You read drawings.",
		Prompt:   "Extract dimensions.",
		ImageB64: "aGVsbG8=",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ø25 ±0.1mm", text)

	assert.Equal(t, "qwen3-vl", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)

	parts, ok := got.Messages[1].Content.([]interface{})
	require.True(t, ok)
	require.Len(t, parts, 2)
	assert.Equal(t, "image_url", parts[0].(map[string]interface{})["type"])
	assert.Equal(t, "Extract dimensions.", parts[1].(map[string]interface{})["text"])
}

func TestTranscribeArrayContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":[{"type":"text","text":"line 1"},{"type":"text","text":"line 2"}]}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	text, err := c.Transcribe(context.Background(), client.Request{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "line 1\nline 2", text)
}

func TestTranscribeEmpty(t *testing.T) {
	for name, body := range map[string]string{
		"no choices":    `{"choices":[]}`,
		"empty content": `{"choices":[{"message":{"role":"assistant","content":""}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			c, err := NewClient(srv.URL)
			require.NoError(t, err)
			_, err = c.Transcribe(context.Background(), client.Request{Prompt: "x"})
			assert.ErrorIs(t, err, errs.ErrEmptyResponse)
		})
	}
}

func TestTranscribeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	_, err = c.Transcribe(context.Background(), client.Request{Prompt: "x"})
	assert.ErrorIs(t, err, errs.ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "503")
}
