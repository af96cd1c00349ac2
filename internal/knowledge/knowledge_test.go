package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIEmbedder_EmbedsBatch(t *testing.T) {
	var gotInput []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openAIEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotInput = req.Input

		// Answer out of order to exercise index alignment.
		resp := map[string]any{"data": []map[string]any{
			{"index": 1, "embedding": []float32{0, 1}},
			{"index": 0, "embedding": []float32{1, 0}},
		}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("test-key", "text-embedding-3-small", 0, srv.URL)
	vecs, err := e.Embed(context.Background(), []string{"first", "   "})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{1, 0}, vecs[0])
	assert.Equal(t, []float32{0, 1}, vecs[1])

	// Blank inputs are replaced before the call.
	require.Len(t, gotInput, 2)
	assert.Equal(t, " ", gotInput[1])
}

func TestOpenAIEmbedder_RetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		resp := map[string]any{"data": []map[string]any{
			{"index": 0, "embedding": []float32{0.5}},
		}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("test-key", "m", 0, srv.URL)
	vecs, err := e.Embed(context.Background(), []string{"text"})
	require.NoError(t, err)
	require.Len(t, vecs, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAIEmbedder_SurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"invalid model"}}`)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("test-key", "bogus", 0, srv.URL)
	_, err := e.Embed(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model")
}

func TestOpenAIEmbedder_RequiresKeyAndModel(t *testing.T) {
	_, err := NewOpenAIEmbedder("", "m", 0, "").Embed(context.Background(), []string{"x"})
	assert.Error(t, err)

	_, err = NewOpenAIEmbedder("k", "", 0, "").Embed(context.Background(), []string{"x"})
	assert.Error(t, err)
}

func TestOpenAIChat_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openAIChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, RoleSystem, req.Messages[0].Role)

		resp := map[string]any{"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": "  The notice period is 60 days.  "}},
		}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewOpenAIChat("test-key", "gpt-4o-mini", srv.URL)
	out, err := c.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "Answer only from the context."},
		{Role: RoleUser, Content: "What is the notice period?"},
	}, 0.2)
	require.NoError(t, err)
	assert.Equal(t, "The notice period is 60 days.", out)
}

func TestOllamaEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		resp := map[string]any{"embeddings": [][]float32{{1, 2}, {3, 4}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("nomic-embed-text", 0, srv.URL)
	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, 2, e.Dimension()) // inferred from the first vector
}

func TestNewEmbedder_ProviderSelection(t *testing.T) {
	e, err := NewEmbedder(context.Background(), Options{Provider: "openai", APIKey: "k", Model: "m"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIEmbedder{}, e)

	e, err = NewEmbedder(context.Background(), Options{Provider: "OLLAMA", Model: "m"})
	require.NoError(t, err)
	assert.IsType(t, &OllamaEmbedder{}, e)

	// Default provider is openai.
	e, err = NewEmbedder(context.Background(), Options{APIKey: "k", Model: "m"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIEmbedder{}, e)

	_, err = NewEmbedder(context.Background(), Options{Provider: "watson"})
	assert.Error(t, err)
}

func TestNewChatModel_ProviderSelection(t *testing.T) {
	c, err := NewChatModel(context.Background(), Options{Provider: "openai", APIKey: "k", Model: "m"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIChat{}, c)

	_, err = NewChatModel(context.Background(), Options{Provider: "watson"})
	assert.Error(t, err)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, "plain text", StripCodeFence("plain text"))
}
