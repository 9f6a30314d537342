package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultTimeout     = 60 * time.Second
	maxTokens          = 2000
	defaultTemperature = 0.7
)

// GatewayError wraps a failed backend call with the model that was
// targeted and the HTTP status, when one was received. The orchestrator
// records these per evaluation row instead of aborting the batch.
type GatewayError struct {
	Model  ModelID
	Status int
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("llm call for %s failed (HTTP %d): %v", e.Model, e.Status, e.Err)
	}
	return fmt.Sprintf("llm call for %s failed: %v", e.Model, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Response is the gateway's view of a completed backend call.
type Response struct {
	Text             string
	Model            ModelID
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client sends evaluation prompts to an OpenAI-compatible chat API.
type Client struct {
	apiKey      string
	baseURL     string
	temperature float64
	httpClient  *http.Client
}

// NewClient creates a gateway client with the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:      apiKey,
		baseURL:     defaultBaseURL,
		temperature: defaultTemperature,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// SetTemperature overrides the default sampling temperature.
func (c *Client) SetTemperature(t float64) {
	c.temperature = t
}

// NewClientWithBaseURL creates a client pointing at a custom base URL (for testing).
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Generate sends the prompt to the backend model mapped from modelID and
// returns the raw completion text plus usage metadata. One backend call
// per invocation, no retry; failures come back as *GatewayError.
func (c *Client) Generate(ctx context.Context, prompt string, modelID ModelID) (Response, error) {
	body, err := json.Marshal(chatRequest{
		Model:       BackendModel(modelID),
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return Response{}, &GatewayError{Model: modelID, Err: fmt.Errorf("marshaling request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Response{}, &GatewayError{Model: modelID, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, &GatewayError{Model: modelID, Err: fmt.Errorf("executing request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Response{}, &GatewayError{
			Model:  modelID,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(respBody))),
		}
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Response{}, &GatewayError{Model: modelID, Err: fmt.Errorf("decoding response: %w", err)}
	}

	var text string
	if len(result.Choices) > 0 {
		text = result.Choices[0].Message.Content
	}

	return Response{
		Text:             text,
		Model:            modelID,
		PromptTokens:     result.Usage.PromptTokens,
		CompletionTokens: result.Usage.CompletionTokens,
		TotalTokens:      result.Usage.TotalTokens,
	}, nil
}
