package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/pairlens/internal/resolve"
	"github.com/spf13/cobra"
)

var (
	resolveDataset  string
	resolveSummary  string
	resolveQuestion string
	resolveBaseURL  string
	resolveMode     string
	resolveManifest string
	resolveTimeout  time.Duration
	resolveJSON     string
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Discover all chart pairs in the corpus",
	Long: `Resolve enumerates the dataset / summary-set / pair hierarchy and prints
the ordered pair list a rating session would walk.

In probe mode every candidate directory and image is existence-checked against
the corpus server; in manifest mode the authored asset table answers instead
(for static hosts without directory listing).

Example:
  pairlens resolve
  pairlens resolve --dataset Inc500Charts --summary 3 --question 2
  pairlens resolve --mode manifest --json pairs.json`,
	Args: cobra.NoArgs,
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVar(&resolveDataset, "dataset", "", "filter by dataset key")
	resolveCmd.Flags().StringVar(&resolveSummary, "summary", "", "filter by summary index")
	resolveCmd.Flags().StringVar(&resolveQuestion, "question", "", "filter by question index")
	resolveCmd.Flags().StringVar(&resolveBaseURL, "base-url", "", "corpus base URL (overrides config)")
	resolveCmd.Flags().StringVar(&resolveMode, "mode", "", "existence strategy: probe or manifest (overrides config)")
	resolveCmd.Flags().StringVar(&resolveManifest, "manifest", "", "YAML manifest path (manifest mode)")
	resolveCmd.Flags().DurationVar(&resolveTimeout, "timeout", 2*time.Minute, "overall resolution timeout")
	resolveCmd.Flags().StringVar(&resolveJSON, "json", "", "write the pair list as JSON to this path")
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if resolveBaseURL != "" {
		cfg.Corpus.BaseURL = resolveBaseURL
	}
	if resolveMode != "" {
		cfg.Corpus.Mode = resolveMode
	}
	if resolveManifest != "" {
		cfg.Corpus.ManifestPath = resolveManifest
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	resolver, err := newResolver(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Corpus: %s (mode: %s)\n", cfg.Corpus.BaseURL, cfg.Corpus.Mode)
		fmt.Fprintln(os.Stderr)
	}

	pairs, err := resolver.ResolveAll(ctx, resolve.Filter{
		Dataset:  resolveDataset,
		Summary:  resolveSummary,
		Question: resolveQuestion,
	})
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}

	if len(pairs) == 0 {
		fmt.Println("No pairs found.")
		return nil
	}

	fmt.Printf("Found %d pairs:\n\n", len(pairs))
	for i, pair := range pairs {
		fmt.Printf("%3d. %s\n", i+1, pair.ID)
		fmt.Printf("     %s | %s/%s | images: %s, %s\n",
			pair.Metadata.Dataset, pair.SummarySet, pair.PairDir,
			pair.Images[0].Name, pair.Images[1].Name)
	}

	if resolveJSON != "" {
		data, err := json.MarshalIndent(pairs, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal pairs: %w", err)
		}
		if err := os.WriteFile(resolveJSON, data, 0644); err != nil {
			return fmt.Errorf("write pairs: %w", err)
		}
		fmt.Printf("\nPair list written to %s\n", resolveJSON)
	}

	return nil
}
