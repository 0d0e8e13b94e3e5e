package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"shelver/internal/fileutil"
	"shelver/internal/library"
	"shelver/internal/logging"
	"shelver/internal/services"
	"shelver/internal/services/ffmpeg"
)

// Recorder receives bookkeeping updates for archived identifiers. A nil
// Recorder disables bookkeeping; failures are logged and never abort the run.
type Recorder interface {
	RecordIngest(ctx context.Context, id int64, sourceName string, lowQuality, preview bool) error
}

// Result summarizes one ingestion pass.
type Result struct {
	// Processed counts files fully archived: copy plus both derivations.
	Processed int
	// Partial counts files whose high-quality copy exists but at least one
	// derivation failed; the healing pass will finish them.
	Partial int
	// Skipped counts files left untouched in the inbox after a copy failure.
	Skipped int
	// NextID is the identifier the next ingested file will receive.
	NextID int64
	// Changed reports whether any artifact was written.
	Changed bool
}

// Sequencer drives raw inbox files into the archive, one at a time.
type Sequencer struct {
	layout     library.Layout
	transcoder ffmpeg.Transcoder
	recorder   Recorder
	logger     *slog.Logger
}

// New constructs an ingestion sequencer.
func New(layout library.Layout, transcoder ffmpeg.Transcoder, recorder Recorder, logger *slog.Logger) *Sequencer {
	return &Sequencer{
		layout:     layout,
		transcoder: transcoder,
		recorder:   recorder,
		logger:     logging.NewComponentLogger(logger, "ingest"),
	}
}

// Run ingests every raw file currently in the inbox, assigning sequential
// identifiers starting at nextID. Identifiers are only consumed by files
// whose high-quality copy succeeds, so a failed copy leaves no numbering gap.
// Per-file failures are logged and never abort the batch; only an unreadable
// inbox is returned as an error.
func (s *Sequencer) Run(ctx context.Context, nextID int64) (Result, error) {
	result := Result{NextID: nextID}

	files, err := library.ListInbox(s.layout.Inbox)
	if err != nil {
		return result, services.Wrap(services.ErrExternalTool, "ingest", "list inbox", s.layout.Inbox, err)
	}
	if len(files) == 0 {
		s.logger.Debug("inbox empty")
		return result, nil
	}
	s.logger.Info("ingesting inbox", logging.Int("files", len(files)), logging.Int64("next_id", nextID))

	for _, raw := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		s.ingestOne(ctx, raw, &result)
	}
	return result, nil
}

func (s *Sequencer) ingestOne(ctx context.Context, raw string, result *Result) {
	id := result.NextID
	ext := filepath.Ext(raw)
	hqPath := s.layout.HighQualityPath(id, ext)
	logger := s.logger.With(
		logging.Int64(logging.FieldVideoID, id),
		logging.String("source", filepath.Base(raw)),
	)

	// The raw file is the only original until this copy stands, so the copy
	// is verified (size + SHA256 read-back) before the inbox file goes away.
	if err := fileutil.CopyFileVerified(raw, hqPath); err != nil {
		// The raw file stays in the inbox and the identifier is not
		// consumed; the next run retries from the same state.
		logger.Error("archive copy failed",
			logging.String(logging.FieldOperation, "copy"),
			logging.String(logging.FieldPath, raw),
			logging.Error(err),
		)
		result.Skipped++
		return
	}
	result.NextID = id + 1
	result.Changed = true
	logger.Info("archived high-quality copy", logging.String(logging.FieldPath, hqPath))

	// The archival copy stands, so the inbox file is consumed now. Removing
	// it before the derivations keeps a derivation failure from re-ingesting
	// the same clip under a fresh identifier on the next run.
	if err := os.Remove(raw); err != nil {
		logger.Warn("remove inbox file failed",
			logging.String(logging.FieldOperation, "remove"),
			logging.String(logging.FieldPath, raw),
			logging.Error(err),
		)
	}

	lqOK := s.deriveLowQuality(ctx, logger, id, hqPath)
	previewOK := false
	if lqOK {
		previewOK = s.derivePreview(ctx, logger, id)
	}

	if lqOK && previewOK {
		result.Processed++
	} else {
		result.Partial++
	}
	s.record(ctx, logger, id, filepath.Base(raw), lqOK, previewOK)
}

func (s *Sequencer) deriveLowQuality(ctx context.Context, logger *slog.Logger, id int64, hqPath string) bool {
	lqPath := s.layout.LowQualityPath(id)
	if err := s.transcoder.DeriveLowQuality(ctx, hqPath, lqPath); err != nil {
		logger.Error("low-quality derivation failed, healing will retry",
			logging.String(logging.FieldOperation, "derive low quality"),
			logging.String(logging.FieldPath, hqPath),
			logging.Error(err),
		)
		return false
	}
	logger.Info("derived low-quality copy", logging.String(logging.FieldPath, lqPath))
	return true
}

func (s *Sequencer) derivePreview(ctx context.Context, logger *slog.Logger, id int64) bool {
	lqPath := s.layout.LowQualityPath(id)
	previewPath := s.layout.PreviewPath(id)
	if err := s.transcoder.ExtractPreviewFrame(ctx, lqPath, previewPath); err != nil {
		logger.Error("preview extraction failed, healing will retry",
			logging.String(logging.FieldOperation, "extract preview"),
			logging.String(logging.FieldPath, lqPath),
			logging.Error(err),
		)
		return false
	}
	logger.Info("extracted preview frame", logging.String(logging.FieldPath, previewPath))
	return true
}

func (s *Sequencer) record(ctx context.Context, logger *slog.Logger, id int64, sourceName string, lowQuality, preview bool) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordIngest(ctx, id, sourceName, lowQuality, preview); err != nil {
		logger.Warn("catalog update failed", logging.Error(err))
	}
}
