package a4f

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Client is a stateless HTTP client for the A4F multi-model AI API.
// One network call per method; no retries.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// APIError is returned when the provider responds with a non-2xx status
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("a4f: status %d: %s", e.Status, e.Body)
}

// NewClient creates a new A4F client
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GenerateImage requests an image generation
func (c *Client) GenerateImage(ctx context.Context, body map[string]interface{}) (json.RawMessage, error) {
	return c.postJSON(ctx, "/images/generations", body)
}

// GenerateVideo requests a video generation
func (c *Client) GenerateVideo(ctx context.Context, body map[string]interface{}) (json.RawMessage, error) {
	return c.postJSON(ctx, "/video/generations", body)
}

// ChatCompletions requests a chat completion
func (c *Client) ChatCompletions(ctx context.Context, body map[string]interface{}) (json.RawMessage, error) {
	return c.postJSON(ctx, "/chat/completions", body)
}

// GenerateSpeech requests a text-to-speech synthesis
func (c *Client) GenerateSpeech(ctx context.Context, body map[string]interface{}) (json.RawMessage, error) {
	return c.postJSON(ctx, "/audio/speech", body)
}

// Embeddings requests vector embeddings
func (c *Client) Embeddings(ctx context.Context, body map[string]interface{}) (json.RawMessage, error) {
	return c.postJSON(ctx, "/embeddings", body)
}

// Transcribe uploads an audio file for transcription
func (c *Client) Transcribe(ctx context.Context, model, filename string, file io.Reader) (json.RawMessage, error) {
	fields := map[string]string{"model": model}
	return c.postMultipart(ctx, "/audio/transcriptions", fields, "file", filename, file)
}

// EditImage uploads an image with an edit prompt
func (c *Client) EditImage(ctx context.Context, model, prompt, filename string, file io.Reader) (json.RawMessage, error) {
	fields := map[string]string{"model": model, "prompt": prompt}
	return c.postMultipart(ctx, "/images/edits", fields, "image", filename, file)
}

func (c *Client) postJSON(ctx context.Context, path string, body map[string]interface{}) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req)
}

func (c *Client) postMultipart(ctx context.Context, path string, fields map[string]string, fileField, filename string, file io.Reader) (json.RawMessage, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", key, err)
		}
	}

	part, err := writer.CreateFormFile(fileField, filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	return c.do(req)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("a4f request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return json.RawMessage(body), nil
}
