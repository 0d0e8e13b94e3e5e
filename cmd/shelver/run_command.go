package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"shelver/internal/config"
	"shelver/internal/logging"
	"shelver/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Ingest new videos, heal missing artifacts, and publish the archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, cfg, err := executeStages(cmd, ctx, workflow.AllStages())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ingested %d video(s) (%d partial, %d skipped), healed %d artifact(s)\n",
				summary.Processed+summary.Partial, summary.Partial, summary.Skipped, summary.Healed)
			if cfg.Publish.Enabled {
				fmt.Fprintf(out, "Published: %s\n", yesNo(summary.Published))
			}
			fmt.Fprintf(out, "Next identifier: %d\n", summary.NextID)
			return nil
		},
	}
}

// executeStages runs the selected pipeline stages with signal-aware
// cancellation and the configured logger.
func executeStages(cmd *cobra.Command, ctx *commandContext, stages workflow.Stages) (workflow.RunSummary, *config.Config, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return workflow.RunSummary{}, nil, fmt.Errorf("load config: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logPath := filepath.Join(cfg.Paths.LogDir, "shelver.log")
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return workflow.RunSummary{}, nil, fmt.Errorf("init logger: %w", err)
	}

	manager, err := workflow.NewManager(cfg, logger)
	if err != nil {
		return workflow.RunSummary{}, nil, err
	}

	summary, err := manager.RunStages(signalCtx, stages)
	return summary, cfg, err
}
