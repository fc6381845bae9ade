package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadflow-cli/internal/pipeline"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Process new leads with interactive review",
	Long:  "Walks through each new lead on the terminal: approve, send, edit, reject, or skip every drafted follow-up.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateReviewSetup(); err != nil {
			return err
		}

		decisions := pipeline.NewStdinDecision(cmd.InOrStdin(), cmd.OutOrStdout())
		env, err := initEnv(cmd.Context(), decisions)
		if err != nil {
			return err
		}
		defer env.Close()

		_, err = runBatch(cmd.Context(), env)
		return err
	},
}

// validateReviewSetup fails fast before any lead is touched: interactive
// runs are useless without credentials and a leads file.
func validateReviewSetup() error {
	if err := cfg.ValidateLLM(); err != nil {
		return err
	}
	if _, err := os.Stat(cfg.Paths.Leads); err != nil {
		return eris.Wrapf(err, "leads file %s", cfg.Paths.Leads)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}
