package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ppiankov/pairlens/internal/model"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantName  string
		wantNil   bool
		wantError bool
	}{
		{
			name:     "openai with key",
			config:   Config{Provider: "openai", APIKey: "sk-test"},
			wantName: "openai",
		},
		{
			name:      "openai without key",
			config:    Config{Provider: "openai"},
			wantError: true,
		},
		{
			name:     "ollama",
			config:   Config{Provider: "ollama"},
			wantName: "ollama",
		},
		{
			name:     "case insensitive",
			config:   Config{Provider: "OpenAI", APIKey: "sk-test"},
			wantName: "openai",
		},
		{
			name:    "empty disables",
			config:  Config{Provider: ""},
			wantNil: true,
		},
		{
			name:      "unknown provider",
			config:    Config{Provider: "claude"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.config)
			if tt.wantError {
				if err == nil {
					t.Fatal("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if tt.wantNil {
				if p != nil {
					t.Errorf("Expected nil provider, got %s", p.Name())
				}
				return
			}
			if p == nil || p.Name() != tt.wantName {
				t.Errorf("Expected provider %q, got %v", tt.wantName, p)
			}
		})
	}
}

func TestNewProvider_UnknownNamesSupported(t *testing.T) {
	_, err := NewProvider(Config{Provider: "claude"})
	if err == nil || !strings.Contains(err.Error(), "supported: openai, ollama") {
		t.Errorf("Error should list supported providers, got %v", err)
	}
}

func TestConfigFromModel(t *testing.T) {
	mc := model.LLMConfig{
		Provider:  "ollama",
		Model:     "llama3.1:8b",
		BaseURL:   "http://localhost:11434",
		Timeout:   45,
		MaxTokens: 800,
	}
	c := ConfigFromModel(mc)
	if c.Provider != "ollama" || c.Model != "llama3.1:8b" || c.Timeout != 45 || c.MaxTokens != 800 {
		t.Errorf("Config not carried over: %+v", c)
	}
}

func TestOllamaProvider_Summarize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"models":[]}`))
		case "/api/generate":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"model":"llama3.1:8b","response":" Three pairs rated. ","done":true,"prompt_eval_count":100,"eval_count":20}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	p, err := NewOllamaProvider(Config{Provider: "ollama", BaseURL: server.URL, Model: "llama3.1:8b"})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if !p.IsAvailable(ctx) {
		t.Fatal("Provider should report available against the test server")
	}

	resp, err := p.Summarize(ctx, SummarizeRequest{Report: testReport()})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Summary != "Three pairs rated." {
		t.Errorf("Summary should be trimmed, got %q", resp.Summary)
	}
	if resp.TokensUsed != 120 {
		t.Errorf("Expected 120 tokens, got %d", resp.TokensUsed)
	}
}

func TestOllamaProvider_RequiresModel(t *testing.T) {
	p, err := NewOllamaProvider(Config{Provider: "ollama"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Summarize(context.Background(), SummarizeRequest{Report: testReport()}); err == nil {
		t.Error("Expected error when no model is configured")
	}
}

func TestOllamaProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer server.Close()

	p, err := NewOllamaProvider(Config{Provider: "ollama", BaseURL: server.URL, Model: "missing"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Summarize(context.Background(), SummarizeRequest{Report: testReport()})
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Errorf("Expected surfaced API error, got %v", err)
	}
}
