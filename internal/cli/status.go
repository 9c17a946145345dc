package cli

import (
	"fmt"

	"github.com/ppiankov/pairlens/internal/model"
	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-pair evaluation progress",
	Long: `Status lists every pair with recorded input, which categories are complete,
and whether the pair has been submitted.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	st, err := newStore(cfg, logger)
	if err != nil {
		return err
	}

	evals := st.All()
	if len(evals) == 0 {
		fmt.Println("No evaluations recorded yet.")
		return nil
	}

	for _, ev := range evals {
		marks := ""
		for _, c := range model.Categories() {
			if ev.CompletionStatus[c] {
				marks += fmt.Sprintf(" [x] %s", c)
			} else {
				marks += fmt.Sprintf(" [ ] %s", c)
			}
		}

		state := "in progress"
		if ev.IsComplete() {
			state = "complete, awaiting submission"
			if ev.Submitted {
				state = "submitted"
			}
		}

		fmt.Printf("%s (%s)\n %s\n", ev.PairID, state, marks)
	}

	return nil
}
