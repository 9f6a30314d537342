package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerate_Success(t *testing.T) {
	respJSON := `{
		"choices": [{"message": {"role": "assistant", "content": "{\"mentionFound\": true}"}}],
		"usage": {"prompt_tokens": 120, "completion_tokens": 40, "total_tokens": 160}
	}`

	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, respJSON)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", srv.URL)
	resp, err := c.Generate(context.Background(), "evaluate this", GPT4OMini)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if resp.Text != `{"mentionFound": true}` {
		t.Errorf("Text = %q", resp.Text)
	}
	if resp.Model != GPT4OMini {
		t.Errorf("Model = %q, want %q", resp.Model, GPT4OMini)
	}
	if resp.PromptTokens != 120 || resp.CompletionTokens != 40 || resp.TotalTokens != 160 {
		t.Errorf("usage mismatch: %+v", resp)
	}

	if gotBody.Model != "gpt-4o-mini" {
		t.Errorf("backend model = %q, want gpt-4o-mini", gotBody.Model)
	}
	if len(gotBody.Messages) != 1 || gotBody.Messages[0].Role != "user" || gotBody.Messages[0].Content != "evaluate this" {
		t.Errorf("messages = %+v", gotBody.Messages)
	}
	if gotBody.MaxTokens != 2000 {
		t.Errorf("max_tokens = %d, want 2000", gotBody.MaxTokens)
	}
}

func TestGenerate_AuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("secret-key", srv.URL)
	if _, err := c.Generate(context.Background(), "hi", GPT4O); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if gotAuth != "Bearer secret-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestGenerate_BackendErrorIsGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limit"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", srv.URL)
	_, err := c.Generate(context.Background(), "hi", GPT4O)
	if err == nil {
		t.Fatal("expected error on HTTP 429")
	}

	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *GatewayError, got %T: %v", err, err)
	}
	if gwErr.Status != http.StatusTooManyRequests {
		t.Errorf("Status = %d, want 429", gwErr.Status)
	}
	if gwErr.Model != GPT4O {
		t.Errorf("Model = %q, want GPT_4O", gwErr.Model)
	}
}

func TestBackendModelMapping(t *testing.T) {
	tests := []struct {
		id   ModelID
		want string
	}{
		{GPT4O, "gpt-4o"},
		{GPT4OMini, "gpt-4o-mini"},
		{Claude35Sonnet, "gpt-4o"},
		{GeminiPro, "gpt-4o"},
		{ModelID("SOMETHING_ELSE"), "gpt-4o"}, // unknown ids fall back
	}
	for _, tt := range tests {
		if got := BackendModel(tt.id); got != tt.want {
			t.Errorf("BackendModel(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestIsKnownModel(t *testing.T) {
	for _, id := range KnownModels() {
		if !IsKnownModel(id) {
			t.Errorf("IsKnownModel(%q) = false", id)
		}
	}
	if IsKnownModel("GPT_5") {
		t.Error("IsKnownModel accepted an id outside the closed set")
	}
}
