package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"shelver/internal/catalog"
	"shelver/internal/config"
	"shelver/internal/deps"
	"shelver/internal/fileutil"
	"shelver/internal/library"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show archive contents and external dependency availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()

			layout := library.NewLayout(cfg)
			records, err := library.ListArchive(layout.HighQuality)
			if err != nil {
				return fmt.Errorf("read archive: %w", err)
			}
			ledger := loadLedger(cmd.Context(), cfg)

			fmt.Fprintf(out, "Library: %s\n", cfg.Paths.BaseDir)
			if inbox, err := library.ListInbox(layout.Inbox); err == nil {
				fmt.Fprintf(out, "Inbox: %d file(s) awaiting ingestion\n", len(inbox))
			}
			fmt.Fprintln(out)

			if len(records) == 0 {
				fmt.Fprintln(out, "Archive is empty.")
			} else {
				rows := make([][]string, 0, len(records))
				for _, record := range records {
					source := ""
					if entry, ok := ledger.videos[record.ID]; ok {
						source = entry.SourceName
					}
					rows = append(rows, []string{
						strconv.FormatInt(record.ID, 10),
						yesNo(fileutil.Exists(layout.LowQualityPath(record.ID))),
						yesNo(fileutil.Exists(layout.PreviewPath(record.ID))),
						source,
					})
				}
				fmt.Fprintln(out, renderTable([]string{"ID", "LQ", "PREVIEW", "SOURCE"}, rows, 1))
			}
			fmt.Fprintln(out)

			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			depRows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				detail := status.Detail
				if status.Available {
					detail = status.Command
				}
				depRows = append(depRows, []string{
					status.Name,
					yesNo(status.Available),
					yesNo(!status.Optional),
					detail,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"DEPENDENCY", "AVAILABLE", "REQUIRED", "DETAIL"}, depRows))

			if ledger.lastRun != nil {
				fmt.Fprintf(out, "\nLast run %s: processed %d, healed %d, published %s\n",
					ledger.lastRun.FinishedAt.Local().Format(time.RFC3339),
					ledger.lastRun.Processed,
					ledger.lastRun.Healed,
					yesNo(ledger.lastRun.Published),
				)
			}
			return nil
		},
	}
}

type ledgerView struct {
	videos  map[int64]catalog.Video
	lastRun *catalog.Run
}

// loadLedger reads catalog bookkeeping for display. The status command works
// without it, so any failure degrades to an empty view.
func loadLedger(ctx context.Context, cfg *config.Config) ledgerView {
	view := ledgerView{videos: map[int64]catalog.Video{}}
	if !cfg.Catalog.Enabled {
		return view
	}
	store, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return view
	}
	defer store.Close()

	if videos, err := store.ListVideos(ctx); err == nil {
		for _, video := range videos {
			view.videos[video.ID] = video
		}
	}
	if run, err := store.LastRun(ctx); err == nil {
		view.lastRun = run
	}
	return view
}
