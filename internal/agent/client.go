package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lucasnoah/dockhand/internal/pipeline"
)

// CompletionClient abstracts the generative model call. The response is
// free text with no guaranteed structure.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// HTTPClient calls an OpenAI-compatible chat completions endpoint.
type HTTPClient struct {
	Endpoint    string
	Model       string
	APIKey      string
	Temperature float64
	Timeout     time.Duration

	httpClient *http.Client
}

// NewHTTPClient creates a client with the given endpoint and model.
func NewHTTPClient(endpoint, model, apiKey string, temperature float64, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		Endpoint:    endpoint,
		Model:       model,
		APIKey:      apiKey,
		Temperature: temperature,
		Timeout:     timeout,
		httpClient:  &http.Client{},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompt and returns the raw response text. The call
// is bounded by the client timeout; exceeding it is a TimeoutError so
// retry accounting treats it like any other failed attempt.
func (c *HTTPClient) Complete(ctx context.Context, prompt string) (string, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model:       c.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return "", &pipeline.TimeoutError{Op: "model call", Limit: timeout}
		}
		return "", fmt.Errorf("model call: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", &pipeline.TimeoutError{Op: "model call", Limit: timeout}
		}
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		excerpt := string(data)
		if len(excerpt) > 300 {
			excerpt = excerpt[:300]
		}
		return "", fmt.Errorf("model endpoint returned %d: %s", resp.StatusCode, excerpt)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		// Tolerated: the validator rejects empty text and retries.
		return "", nil
	}
	return parsed.Choices[0].Message.Content, nil
}
