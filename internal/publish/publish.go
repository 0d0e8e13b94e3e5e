package publish

import (
	"context"
	"log/slog"

	"shelver/internal/library"
	"shelver/internal/logging"
	"shelver/internal/services"
	"shelver/internal/services/git"
)

// Options configures one publish invocation.
type Options struct {
	CommitMessage string
	// Push disabled leaves the commit local.
	Push bool
}

// Result summarizes one publish attempt.
type Result struct {
	// Skipped is true when neither the change flag nor the work tree
	// reported anything to publish.
	Skipped bool
	// Committed is true once the commit step succeeded.
	Committed bool
	// Pushed is true once the push step succeeded (always false when
	// pushing is disabled).
	Pushed bool
}

// Publisher syncs the archive tree to its git remote.
type Publisher struct {
	layout library.Layout
	vcs    git.VersionControl
	opts   Options
	logger *slog.Logger
}

// New constructs a publisher.
func New(layout library.Layout, vcs git.VersionControl, opts Options, logger *slog.Logger) *Publisher {
	return &Publisher{
		layout: layout,
		vcs:    vcs,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "publish"),
	}
}

// Run stages, commits, and pushes the archive when something changed.
//
// The gate is deliberately double: the in-memory change flag covers this
// run's writes, and an independent porcelain check of the archive
// directories covers leftovers from a prior run that crashed after writing
// files. A failure at any step aborts the remaining steps and leaves
// repository state exactly as git left it; the operator resolves partially
// staged or committed state manually.
func (p *Publisher) Run(ctx context.Context, changed bool) (Result, error) {
	var result Result

	if !changed {
		dirty, err := p.vcs.HasChanges(ctx, p.layout.ArchiveDirs()...)
		if err != nil {
			return result, services.Wrap(services.ErrExternalTool, "publish", "check work tree", "", err)
		}
		if !dirty {
			p.logger.Debug("nothing to publish")
			result.Skipped = true
			return result, nil
		}
		p.logger.Info("work tree dirty from a previous run, publishing")
	}

	if err := p.vcs.StageAll(ctx); err != nil {
		return result, services.Wrap(services.ErrExternalTool, "publish", "stage changes", "", err)
	}
	p.logger.Info("staged archive changes")

	if err := p.vcs.Commit(ctx, p.opts.CommitMessage); err != nil {
		p.logger.Warn("commit failed, changes remain staged for manual resolution")
		return result, services.Wrap(services.ErrExternalTool, "publish", "commit", "", err)
	}
	result.Committed = true
	p.logger.Info("committed archive changes", logging.String("message", p.opts.CommitMessage))

	if !p.opts.Push {
		p.logger.Info("push disabled, commit kept local")
		return result, nil
	}
	if err := p.vcs.Push(ctx); err != nil {
		p.logger.Warn("push failed, commit remains local and requires manual resolution")
		return result, services.Wrap(services.ErrExternalTool, "publish", "push", "", err)
	}
	result.Pushed = true
	p.logger.Info("pushed archive changes")
	return result, nil
}
