package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow-cli/internal/pipeline"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run batches on an interval until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScheduled(cmd.Context())
	},
}

// runScheduled runs one batch immediately, then repeats on the configured
// interval until SIGINT/SIGTERM or until a batch trips the send ceiling.
// Batch errors are logged, never fatal: the next tick retries from
// persisted state.
func runScheduled(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := initEnv(ctx, nil)
	if err != nil {
		return err
	}
	defer env.Close()

	interval := time.Duration(cfg.Run.IntervalMins) * time.Minute
	zap.L().Info("scheduler started",
		zap.Duration("interval", interval),
		zap.Bool("auto_send", cfg.Pipeline.AutoSend),
		zap.String("threshold", cfg.Pipeline.Threshold),
		zap.Int("batch_size", cfg.Pipeline.BatchSize),
	)

	return scheduleLoop(ctx, interval, func(ctx context.Context) (*pipeline.Summary, error) {
		return runBatch(ctx, env)
	})
}

// scheduleLoop drives the interval loop. The send ceiling stops the whole
// scheduler, not just the current batch: a human has to review and restart
// the process before any more email goes out.
func scheduleLoop(ctx context.Context, interval time.Duration, run func(context.Context) (*pipeline.Summary, error)) error {
	runOnce := func() (ceiling bool) {
		summary, err := run(ctx)
		if err != nil {
			zap.L().Error("scheduled batch failed", zap.Error(err))
			return false
		}
		return summary.LimitReached
	}

	if runOnce() {
		zap.L().Info("send ceiling reached, scheduler stopping for review")
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("scheduler stopping")
			return nil
		case <-ticker.C:
			if runOnce() {
				zap.L().Info("send ceiling reached, scheduler stopping for review")
				return nil
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}
