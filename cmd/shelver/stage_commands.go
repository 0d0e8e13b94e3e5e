package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shelver/internal/workflow"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Archive raw inbox videos without healing or publishing",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, _, err := executeStages(cmd, ctx, workflow.Stages{Ingest: true})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d video(s) (%d partial, %d skipped), next identifier %d\n",
				summary.Processed+summary.Partial, summary.Partial, summary.Skipped, summary.NextID)
			return nil
		},
	}
}

func newHealCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "heal",
		Short: "Derive missing low-quality copies and preview frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, _, err := executeStages(cmd, ctx, workflow.Stages{Heal: true})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Healed %d artifact(s)\n", summary.Healed)
			return nil
		},
	}
}

func newPublishCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Commit and push archive changes without ingesting or healing",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, cfg, err := executeStages(cmd, ctx, workflow.Stages{Publish: true})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !cfg.Publish.Enabled {
				fmt.Fprintln(out, "Publishing is disabled in the configuration")
				return nil
			}
			fmt.Fprintf(out, "Published: %s\n", yesNo(summary.Published))
			return nil
		},
	}
}
