package workflow

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"shelver/internal/catalog"
	"shelver/internal/config"
	"shelver/internal/deps"
	"shelver/internal/heal"
	"shelver/internal/ingest"
	"shelver/internal/library"
	"shelver/internal/logging"
	"shelver/internal/publish"
	"shelver/internal/runlock"
	"shelver/internal/services"
	"shelver/internal/services/ffmpeg"
	"shelver/internal/services/git"
)

var errRequiredBinaryMissing = errors.New("required binary missing")

// Stages selects which pipeline stages a run executes.
type Stages struct {
	Ingest  bool
	Heal    bool
	Publish bool
}

// AllStages runs the full pipeline.
func AllStages() Stages {
	return Stages{Ingest: true, Heal: true, Publish: true}
}

// RunSummary reports what one pipeline invocation did.
type RunSummary struct {
	RunID     string
	Processed int
	Partial   int
	Skipped   int
	Healed    int
	Published bool
	NextID    int64
}

// Manager drives the fixed pipeline order: ingest, heal, publish.
type Manager struct {
	cfg        *config.Config
	layout     library.Layout
	transcoder ffmpeg.Transcoder
	vcs        git.VersionControl
	store      *catalog.Store
	base       *slog.Logger
	logger     *slog.Logger

	// preflight validates external binaries before any file is touched.
	// Nil skips the check (dependency-injecting tests).
	preflight func() error
}

// NewManager constructs a manager with real external tool clients. It fails
// when the configuration cannot produce working clients.
func NewManager(cfg *config.Config, logger *slog.Logger) (*Manager, error) {
	transcoder, err := ffmpeg.New(cfg.Transcode.FFmpegBinary, ffmpeg.Settings{
		CRF:    cfg.Transcode.CRF,
		Preset: cfg.Transcode.Preset,
		Width:  cfg.Transcode.PreviewWidth,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "build transcoder", "", err)
	}

	var vcs git.VersionControl
	if cfg.Publish.Enabled {
		client, err := git.New(cfg.Publish.GitBinary, cfg.Paths.BaseDir)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "workflow", "build git client", "", err)
		}
		vcs = client
	}

	m := NewManagerWithDependencies(cfg, transcoder, vcs, nil, logger)
	m.preflight = func() error {
		statuses := deps.CheckBinaries(deps.Requirements(cfg))
		if missing := deps.MissingRequired(statuses); len(missing) > 0 {
			return services.Wrap(services.ErrConfiguration, "workflow", "preflight", missing[0], errRequiredBinaryMissing)
		}
		return nil
	}
	return m, nil
}

// NewManagerWithDependencies allows injecting collaborators (used in tests).
// The catalog store may be nil; the git client may be nil when publishing is
// disabled.
func NewManagerWithDependencies(cfg *config.Config, transcoder ffmpeg.Transcoder, vcs git.VersionControl, store *catalog.Store, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:        cfg,
		layout:     library.NewLayout(cfg),
		transcoder: transcoder,
		vcs:        vcs,
		store:      store,
		base:       logger,
		logger:     logging.NewComponentLogger(logger, "workflow"),
	}
}

// Run executes one full maintenance pass.
func (m *Manager) Run(ctx context.Context) (RunSummary, error) {
	return m.RunStages(ctx, AllStages())
}

// RunStages executes the selected stages of one maintenance pass.
//
// Startup failures (directories, missing binaries, a held run lock) abort
// the run. Everything after startup follows the per-file error policy of the
// individual stages: failures are narrated and the pass continues. A publish
// failure ends the run with repository state as git left it; it is reported
// but does not fail the run, matching the rule that only startup conditions
// are fatal.
func (m *Manager) RunStages(ctx context.Context, stages Stages) (RunSummary, error) {
	summary := RunSummary{RunID: uuid.NewString()}
	started := time.Now().UTC()
	runAttr := logging.String(logging.FieldRunID, summary.RunID)
	logger := m.logger.With(runAttr)
	stageLogger := m.base
	if stageLogger != nil {
		stageLogger = stageLogger.With(runAttr)
	}

	lock, err := runlock.Acquire(filepath.Join(m.cfg.Paths.LogDir, "shelver.lock"))
	if err != nil {
		return summary, err
	}
	defer func() { _ = lock.Release() }()

	if err := m.cfg.EnsureDirectories(); err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "workflow", "ensure directories", m.cfg.Paths.BaseDir, err)
	}
	if m.preflight != nil {
		if err := m.preflight(); err != nil {
			return summary, err
		}
	}

	store, ownedStore := m.openCatalog(logger)
	if ownedStore {
		defer func() { _ = store.Close() }()
	}

	nextID := m.startingID(logger)
	summary.NextID = nextID
	logger.Info("starting maintenance pass", logging.Int64("next_id", nextID))

	changed := false

	if stages.Ingest {
		ingestResult, err := ingest.New(m.layout, m.transcoder, ingestRecorder(store), stageLogger).Run(ctx, nextID)
		if err != nil {
			if ctx.Err() != nil {
				return summary, err
			}
			logger.Error("ingestion pass failed", logging.Error(err))
		}
		summary.Processed = ingestResult.Processed
		summary.Partial = ingestResult.Partial
		summary.Skipped = ingestResult.Skipped
		summary.NextID = ingestResult.NextID
		changed = changed || ingestResult.Changed
	}

	if stages.Heal {
		healResult, err := heal.New(m.layout, m.transcoder, healRecorder(store), stageLogger).Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return summary, err
			}
			logger.Error("healing pass failed", logging.Error(err))
		}
		summary.Healed = healResult.Healed
		changed = changed || healResult.Changed
	}

	if stages.Publish && m.cfg.Publish.Enabled && m.vcs != nil {
		opts := publish.Options{
			CommitMessage: m.cfg.Publish.CommitMessage,
			Push:          m.cfg.Publish.Push,
		}
		publishResult, err := publish.New(m.layout, m.vcs, opts, stageLogger).Run(ctx, changed)
		if err != nil {
			if ctx.Err() != nil {
				return summary, err
			}
			logger.Error("publish failed, local repository state needs manual attention", logging.Error(err))
		}
		summary.Published = publishResult.Committed && (publishResult.Pushed || !m.cfg.Publish.Push)
	}

	m.recordRun(logger, store, summary, started)
	logger.Info("maintenance pass complete",
		logging.Int("processed", summary.Processed),
		logging.Int("partial", summary.Partial),
		logging.Int("skipped", summary.Skipped),
		logging.Int("healed", summary.Healed),
		logging.Bool("published", summary.Published),
	)
	return summary, nil
}

// openCatalog returns the injected store or opens the configured one. The
// second result reports whether this run owns the store and must close it
// when the pass ends. A catalog failure degrades to no bookkeeping, never a
// failed run.
func (m *Manager) openCatalog(logger *slog.Logger) (*catalog.Store, bool) {
	if m.store != nil {
		return m.store, false
	}
	if !m.cfg.Catalog.Enabled {
		return nil, false
	}
	store, err := catalog.Open(m.cfg.Catalog.Path)
	if err != nil {
		logger.Warn("catalog unavailable, continuing without bookkeeping", logging.Error(err))
		return nil, false
	}
	return store, true
}

// startingID resolves the identifier the next ingested file receives. An
// unreadable archive is downgraded to "start from 1" with a warning.
func (m *Manager) startingID(logger *slog.Logger) int64 {
	maxID, err := library.MaxID(m.layout.HighQuality)
	if err != nil {
		logger.Warn("could not determine highest identifier, starting from 1", logging.Error(err))
		return 1
	}
	return maxID + 1
}

func (m *Manager) recordRun(logger *slog.Logger, store *catalog.Store, summary RunSummary, started time.Time) {
	if store == nil {
		return
	}
	run := catalog.Run{
		RunID:      summary.RunID,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Processed:  summary.Processed + summary.Partial,
		Healed:     summary.Healed,
		Published:  summary.Published,
	}
	if err := store.RecordRun(context.Background(), run); err != nil {
		logger.Warn("recording run failed", logging.Error(err))
	}
}

// ingestRecorder adapts a possibly-nil store to the ingest.Recorder
// interface without handing stages a typed nil.
func ingestRecorder(store *catalog.Store) ingest.Recorder {
	if store == nil {
		return nil
	}
	return store
}

func healRecorder(store *catalog.Store) heal.Recorder {
	if store == nil {
		return nil
	}
	return store
}
