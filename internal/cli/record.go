package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/pairlens/internal/model"
	"github.com/ppiankov/pairlens/internal/resolve"
	"github.com/ppiankov/pairlens/internal/session"
	"github.com/ppiankov/pairlens/internal/submit"
	"github.com/spf13/cobra"
)

var (
	recordPrimary    string
	recordChartA     int
	recordChartB     int
	recordConfidence int
	recordRationale  string
	recordTimeout    time.Duration
)

// recordCmd represents the record command
var recordCmd = &cobra.Command{
	Use:   "record <pair-id> <category>",
	Short: "Save one category's responses for a pair",
	Long: `Record saves a rater's responses for one evaluation category of a pair.

The primary choice and both chart ratings are required; confidence and
rationale are optional. Saving the same category again overwrites the earlier
responses. When the save completes all four categories, the pair is submitted
to the collection endpoint automatically; a failed submission stays retryable
via 'pairlens submit'.

Example:
  pairlens record Inc500Charts_sum3_ques2_pair1 clutter \
    --primary "Chart A" --chart-a 5 --chart-b 2 --rationale "dense gridlines"`,
	Args: cobra.ExactArgs(2),
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().StringVar(&recordPrimary, "primary", "", `forced choice: "Chart A", "Chart B", or "About the same"`)
	recordCmd.Flags().IntVar(&recordChartA, "chart-a", 0, "Chart A rating (1-7)")
	recordCmd.Flags().IntVar(&recordChartB, "chart-b", 0, "Chart B rating (1-7)")
	recordCmd.Flags().IntVar(&recordConfidence, "confidence", 0, "confidence rating (1-5, optional)")
	recordCmd.Flags().StringVar(&recordRationale, "rationale", "", "free-text rationale (optional, max 500 chars)")
	recordCmd.Flags().DurationVar(&recordTimeout, "timeout", 2*time.Minute, "overall timeout including auto-submission")
}

func runRecord(cmd *cobra.Command, args []string) error {
	pairID, categoryName := args[0], args[1]

	if !model.ValidCategory(categoryName) {
		return fmt.Errorf("unknown category %q (valid: clutter, cognitive_load, interpretability, style)", categoryName)
	}
	category := model.Category(categoryName)

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	resolver, err := newResolver(cfg, logger)
	if err != nil {
		return err
	}
	st, err := newStore(cfg, logger)
	if err != nil {
		return err
	}
	gateway := newGateway(cfg, st, logger)
	sess := session.New(resolver, st, gateway, logger)

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := sess.Initialize(ctx, resolve.Filter{}); err != nil {
		return err
	}

	pair, ok := sess.FindPair(pairID)
	if !ok {
		return fmt.Errorf("pair %q not found in the resolved corpus", pairID)
	}

	bundle := model.ResponseBundle{
		Primary:    recordPrimary,
		ChartA:     recordChartA,
		ChartB:     recordChartB,
		Confidence: recordConfidence,
		Rationale:  recordRationale,
	}

	outcome, err := sess.RecordResult(ctx, pair, category, bundle)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			fmt.Println("Please complete the following:")
			for _, problem := range verr.Problems {
				fmt.Printf("  - %s\n", problem)
			}
			return fmt.Errorf("responses not saved")
		}
		return err
	}

	fmt.Printf("%s responses saved for %s\n", category.DisplayName(), pairID)

	switch outcome {
	case submit.OutcomeSent:
		fmt.Println("All four categories complete - pair submitted successfully.")
	case submit.OutcomeFailed:
		fmt.Println("All four categories complete, but submission failed - saved locally, will retry via 'pairlens submit'.")
	case submit.OutcomeAlreadySubmitted:
		fmt.Println("Pair was already submitted; the updated responses stay local.")
	}

	return nil
}
