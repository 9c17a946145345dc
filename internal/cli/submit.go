package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	submitPing     bool
	submitEndpoint string
	submitTimeout  time.Duration
)

// submitCmd represents the submit command
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Retry delivery of completed, unsubmitted pairs",
	Long: `Submit re-attempts delivery for every pair whose four categories are
complete but whose earlier submission failed or never ran. Failures stay
retryable; locally saved responses are never at risk.

With --ping, only a connectivity check is posted to the endpoint.`,
	Args: cobra.NoArgs,
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().BoolVar(&submitPing, "ping", false, "only verify the endpoint is reachable")
	submitCmd.Flags().StringVar(&submitEndpoint, "endpoint", "", "collection endpoint URL (overrides config)")
	submitCmd.Flags().DurationVar(&submitTimeout, "timeout", 2*time.Minute, "overall submission timeout")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if submitEndpoint != "" {
		cfg.Submit.EndpointURL = submitEndpoint
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	st, err := newStore(cfg, logger)
	if err != nil {
		return err
	}
	gateway := newGateway(cfg, st, logger)

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	if submitPing {
		if err := gateway.Ping(ctx); err != nil {
			return fmt.Errorf("endpoint check failed: %w", err)
		}
		fmt.Println("Endpoint reachable and accepting submissions.")
		return nil
	}

	sent, failed, err := gateway.SubmitPending(ctx)
	fmt.Printf("Submitted: %d, failed: %d\n", sent, failed)
	if failed > 0 && err != nil {
		return fmt.Errorf("some submissions failed (will retry next run): %w", err)
	}
	return nil
}
