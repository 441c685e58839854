package a4f

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GenerateImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "provider-2/flux.1-schnell", body["model"])
		assert.Equal(t, "a cat", body["prompt"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"url":"https://cdn.example.com/cat.png"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second)

	result, err := client.GenerateImage(context.Background(), map[string]interface{}{
		"model":  "provider-2/flux.1-schnell",
		"prompt": "a cat",
	})
	require.NoError(t, err)

	var parsed struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(result, &parsed))
	require.Len(t, parsed.Data, 1)
	assert.Equal(t, "https://cdn.example.com/cat.png", parsed.Data[0].URL)
}

func TestClient_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"model overloaded"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second)

	_, err := client.ChatCompletions(context.Background(), map[string]interface{}{
		"model": "provider-3/gpt-4o-mini",
	})
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok, "expected *APIError, got %T", err)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Contains(t, apiErr.Body, "model overloaded")
}

func TestClient_Transcribe_Multipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "provider-3/whisper-1", r.FormValue("model"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "speech.mp3", header.Filename)

		w.Write([]byte(`{"text":"hello world"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second)

	result, err := client.Transcribe(context.Background(), "provider-3/whisper-1", "speech.mp3",
		bytes.NewReader([]byte("fake-audio-bytes")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"hello world"}`, string(result))
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Embeddings(ctx, map[string]interface{}{"input": "hi"})
	assert.Error(t, err)
}

func TestModelsByType(t *testing.T) {
	all := ModelsByType("")
	assert.Equal(t, len(Catalog), len(all))

	images := ModelsByType("image")
	require.NotEmpty(t, images)
	for _, m := range images {
		assert.Equal(t, "image", m.Type)
	}

	assert.Empty(t, ModelsByType("no-such-type"))
}
