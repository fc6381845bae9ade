package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow-cli/internal/leads"
	"github.com/sells-group/leadflow-cli/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process new leads unattended",
	Long:  "Classifies and drafts every lead not yet in the state table. Sending is gated by the auto-approve threshold; the batch pauses after the configured number of sends.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Run.Mode == "scheduled" {
			return runScheduled(cmd.Context())
		}

		env, err := initEnv(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer env.Close()

		_, err = runBatch(cmd.Context(), env)
		return err
	},
}

// runBatch executes one batch against the configured leads file and logs
// the outcome. A tripped send ceiling is a normal completion.
func runBatch(ctx context.Context, env *pipelineEnv) (*pipeline.Summary, error) {
	batch, err := leads.LoadCSV(cfg.Paths.Leads)
	if err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		zap.L().Warn("no leads found", zap.String("path", cfg.Paths.Leads))
		return &pipeline.Summary{}, nil
	}

	summary, err := env.Pipeline.Run(ctx, batch)
	if err != nil {
		return nil, err
	}

	zap.L().Info("batch complete",
		zap.Int("processed", summary.Processed),
		zap.Int("sent", summary.Sent),
		zap.Int("saved", summary.Saved),
		zap.Int("rejected", summary.Rejected),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Bool("limit_reached", summary.LimitReached),
	)
	if summary.LimitReached {
		zap.L().Info("batch limit reached, pausing for human review; rerun to continue")
	}
	return summary, nil
}

func init() {
	rootCmd.AddCommand(runCmd)
}
