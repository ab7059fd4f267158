package ollama

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/drawing-analyzer/internal/errs"
	"github.com/menta2k/drawing-analyzer/pkg/client"
)

// DefaultTimeout bounds a request when the caller's context has no deadline
const DefaultTimeout = 300 * time.Second

// Client wraps the Ollama API client
type Client struct {
	client *api.Client
}

var _ client.VisionClient = (*Client)(nil)

// NewClient creates a new Ollama client
func NewClient(ollamaURL string) (*Client, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	// Keep only scheme and host, callers often pass .../api/chat
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	return &Client{client: api.NewClient(baseURL, http.DefaultClient)}, nil
}

// Transcribe sends the image and prompt and returns the model's text answer
func (c *Client) Transcribe(ctx context.Context, req client.Request) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	imgBytes, err := base64.StdEncoding.DecodeString(req.ImageB64)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 image: %w", err)
	}

	var messages []api.Message
	if req.System != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.System})
	}
	messages = append(messages, api.Message{
		Role:    "user",
		Content: req.Prompt,
		Images:  []api.ImageData{api.ImageData(imgBytes)},
	})

	streamFalse := false
	chat := &api.ChatRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   &streamFalse,
		Options:  modelOptions(req.Model),
	}

	var content strings.Builder
	err = c.client.Chat(ctx, chat, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: ollama chat: %v", errs.ErrBackendUnavailable, err)
	}

	if content.Len() == 0 {
		return "", errs.ErrEmptyResponse
	}
	return content.String(), nil
}

// modelOptions returns sampling options for known model families. Grounding
// output must be deterministic, so the OCR models run at temperature 0.
func modelOptions(model string) map[string]any {
	options := map[string]any{}
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "deepseek-ocr"):
		options["temperature"] = 0.0
		options["num_ctx"] = 8192
	case strings.Contains(lower, "qwen") && strings.Contains(lower, "vl"):
		options["temperature"] = 0.1
		options["top_p"] = 0.9
		options["num_predict"] = 4096
	}
	return options
}
