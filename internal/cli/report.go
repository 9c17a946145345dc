package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/pairlens/internal/llm"
	"github.com/ppiankov/pairlens/internal/report"
	"github.com/spf13/cobra"
)

var (
	reportJSON        string
	reportMD          string
	reportLLM         bool
	reportLLMProvider string
	reportLLMModel    string
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize session progress across datasets and categories",
	Long: `Report aggregates the local evaluation state into a progress report:
pairs started, completed, and submitted, per-dataset breakdowns, and
per-category forced-choice and rating distributions.

An optional LLM-generated prose summary can be appended; it never affects the
report data itself.

Example:
  pairlens report
  pairlens report --json progress.json --md progress.md
  pairlens report --llm --llm-provider ollama --llm-model llama3.1:8b`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportJSON, "json", "", "write the report as JSON to this path")
	reportCmd.Flags().StringVar(&reportMD, "md", "", "write the report as Markdown to this path")
	reportCmd.Flags().BoolVar(&reportLLM, "llm", false, "append an LLM-generated summary")
	reportCmd.Flags().StringVar(&reportLLMProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	reportCmd.Flags().StringVar(&reportLLMModel, "llm-model", "", "LLM model name")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	st, err := newStore(cfg, logger)
	if err != nil {
		return err
	}

	r := report.Build(st.All(), 0, time.Now())
	output := r.Markdown()

	if reportLLM {
		cfg.LLM.Provider = reportLLMProvider
		cfg.LLM.Model = reportLLMModel
		if cfg.LLM.Provider == "openai" && cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}

		summarizer, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			return fmt.Errorf("initialize LLM provider: %w", err)
		}

		summary, err := summarizer.GenerateSummary(context.Background(), r)
		if err != nil {
			// The report still stands without its summary
			fmt.Fprintf(os.Stderr, "Warning: LLM summary generation failed: %v\n", err)
		} else if summary != nil {
			output += fmt.Sprintf("\n## Summary (%s)\n\n%s\n", summarizer.ProviderName(), summary.Summary)
		}
	}

	fmt.Print(output)

	if reportJSON != "" {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		if err := os.WriteFile(reportJSON, data, 0644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	if reportMD != "" {
		if err := os.WriteFile(reportMD, []byte(output), 0644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	return nil
}
