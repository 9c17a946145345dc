package llm

import (
	"context"
	"fmt"

	"github.com/ppiankov/pairlens/internal/report"
)

// Summarizer wraps a provider with availability checks and disabled-state
// handling so callers need no nil checks of their own.
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer creates a summarizer from configuration. An empty provider
// name yields a disabled summarizer, not an error.
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Summarizer{
		provider: provider,
		config:   config,
	}, nil
}

// IsEnabled reports whether a provider is configured.
func (s *Summarizer) IsEnabled() bool {
	return s.provider != nil
}

// ProviderName returns the configured provider's name, or "" when disabled.
func (s *Summarizer) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary produces a prose summary of the report. Returns (nil, nil)
// when disabled so callers can skip the summary section silently.
func (s *Summarizer) GenerateSummary(ctx context.Context, r report.Report) (*SummarizeResponse, error) {
	if s.provider == nil {
		return nil, nil
	}

	if !s.provider.IsAvailable(ctx) {
		return nil, fmt.Errorf("LLM provider %s is not available (check configuration and connectivity)", s.provider.Name())
	}

	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Report:    r,
		Model:     s.config.Model,
		MaxTokens: s.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generate summary: %w", err)
	}
	return resp, nil
}
