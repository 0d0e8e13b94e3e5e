package heal

import (
	"context"
	"log/slog"

	"shelver/internal/fileutil"
	"shelver/internal/library"
	"shelver/internal/logging"
	"shelver/internal/services"
	"shelver/internal/services/ffmpeg"
)

// Recorder receives bookkeeping updates for healed identifiers. A nil
// Recorder disables bookkeeping; failures are logged and never abort the run.
type Recorder interface {
	RecordHeal(ctx context.Context, id int64, lowQuality, preview bool) error
}

// Result summarizes one healing pass.
type Result struct {
	// Healed counts derived artifacts created during the pass.
	Healed int
	// Changed reports whether any artifact was written.
	Changed bool
}

// Scanner fills in missing derived artifacts for already-archived videos.
type Scanner struct {
	layout     library.Layout
	transcoder ffmpeg.Transcoder
	recorder   Recorder
	logger     *slog.Logger
}

// New constructs a healing scanner.
func New(layout library.Layout, transcoder ffmpeg.Transcoder, recorder Recorder, logger *slog.Logger) *Scanner {
	return &Scanner{
		layout:     layout,
		transcoder: transcoder,
		recorder:   recorder,
		logger:     logging.NewComponentLogger(logger, "heal"),
	}
}

// Run scans the high-quality archive and derives any missing low-quality
// copies and preview frames. The pass is idempotent: with no filesystem
// changes between runs, the second pass performs zero transcoder
// invocations. Per-item failures are logged, left missing, and retried on
// the next invocation.
func (s *Scanner) Run(ctx context.Context) (Result, error) {
	var result Result

	records, err := library.ListArchive(s.layout.HighQuality)
	if err != nil {
		return result, services.Wrap(services.ErrExternalTool, "heal", "list archive", s.layout.HighQuality, err)
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		s.healOne(ctx, record, &result)
	}

	if result.Healed > 0 {
		s.logger.Info("healing pass complete", logging.Int("healed", result.Healed))
	}
	return result, nil
}

func (s *Scanner) healOne(ctx context.Context, record library.Record, result *Result) {
	logger := s.logger.With(logging.Int64(logging.FieldVideoID, record.ID))

	lqPath := s.layout.LowQualityPath(record.ID)
	lqHealed := false
	if !fileutil.Exists(lqPath) {
		if err := s.transcoder.DeriveLowQuality(ctx, record.HighQuality, lqPath); err != nil {
			logger.Error("low-quality healing failed, will retry next run",
				logging.String(logging.FieldOperation, "derive low quality"),
				logging.String(logging.FieldPath, record.HighQuality),
				logging.Error(err),
			)
		} else {
			logger.Info("healed low-quality copy", logging.String(logging.FieldPath, lqPath))
			result.Healed++
			result.Changed = true
			lqHealed = true
		}
	}

	previewPath := s.layout.PreviewPath(record.ID)
	previewHealed := false
	if !fileutil.Exists(previewPath) {
		// Prefer the low-quality copy as the frame source; it decodes
		// faster and the preview resolution does not benefit from the
		// high-quality original.
		source := lqPath
		if !fileutil.Exists(lqPath) {
			source = record.HighQuality
		}
		if err := s.transcoder.ExtractPreviewFrame(ctx, source, previewPath); err != nil {
			logger.Error("preview healing failed, will retry next run",
				logging.String(logging.FieldOperation, "extract preview"),
				logging.String(logging.FieldPath, source),
				logging.Error(err),
			)
		} else {
			logger.Info("healed preview frame", logging.String(logging.FieldPath, previewPath))
			result.Healed++
			result.Changed = true
			previewHealed = true
		}
	}

	if lqHealed || previewHealed {
		s.record(ctx, logger, record.ID)
	}
}

func (s *Scanner) record(ctx context.Context, logger *slog.Logger, id int64) {
	if s.recorder == nil {
		return
	}
	lq := fileutil.Exists(s.layout.LowQualityPath(id))
	preview := fileutil.Exists(s.layout.PreviewPath(id))
	if err := s.recorder.RecordHeal(ctx, id, lq, preview); err != nil {
		logger.Warn("catalog update failed", logging.Error(err))
	}
}
