// Package llm generates optional natural-language summaries of session
// reports. It never touches resolution, evaluation state, or submission:
// a failed or disabled summarizer costs only the summary.
package llm

import (
	"context"
	"fmt"

	"github.com/ppiankov/pairlens/internal/model"
	"github.com/ppiankov/pairlens/internal/report"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize generates a prose summary of the session report
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	// Report is the session progress report to summarize
	Report report.Report

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's summary output
type SummarizeResponse struct {
	// Summary is the generated summary text
	Summary string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Model:     "",
		Timeout:   30,
		MaxTokens: 1000,
	}
}

// systemPrompt frames every summarization request.
const systemPrompt = "You are a helpful assistant that summarizes chart-rating session reports. Describe only the numbers in the report; never invent pairs, datasets, or ratings."

// BuildPrompt constructs the default prompt for summarizing a session report.
func BuildPrompt(r report.Report) string {
	prompt := fmt.Sprintf(`You are summarizing a chart pair rating session.

Session totals:
- Pairs started: %d
- Pairs fully rated (all four categories): %d
- Submitted to the collection endpoint: %d
- Completed but awaiting submission: %d

Per-category completions and forced-choice counts:
`, r.TrackedPairs, r.Completed, r.Submitted, r.PendingSubmit)

	for _, cs := range r.Categories {
		prompt += fmt.Sprintf("- %s: %d completed (Chart A: %d, Chart B: %d, About the same: %d; mean ratings A %.1f / B %.1f)\n",
			cs.Category.DisplayName(), cs.Completed,
			cs.ChoiceCounts[model.ChoiceChartA],
			cs.ChoiceCounts[model.ChoiceChartB],
			cs.ChoiceCounts[model.ChoiceAboutSame],
			cs.MeanChartA, cs.MeanChartB)
	}

	prompt += "\nProvide a 3-4 sentence summary of the rater's progress and any notable preference patterns. Stick strictly to the numbers above."
	return prompt
}
