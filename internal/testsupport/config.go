// Package testsupport provides shared fixtures for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"shelver/internal/config"
)

// Option adjusts the configuration produced by NewConfig.
type Option func(*config.Config)

// WithPublish enables publishing with the given push behaviour. Tests using
// it are expected to inject a fake git client.
func WithPublish(push bool) Option {
	return func(cfg *config.Config) {
		cfg.Publish.Enabled = true
		cfg.Publish.Push = push
	}
}

// WithCatalog enables the SQLite ledger inside the test's log directory.
func WithCatalog() Option {
	return func(cfg *config.Config) {
		cfg.Catalog.Enabled = true
		cfg.Catalog.Path = filepath.Join(cfg.Paths.LogDir, "catalog.db")
	}
}

// NewConfig returns a validated configuration rooted in a fresh temporary
// directory with every pipeline directory already created. Publishing and
// the catalog are disabled unless an Option turns them on.
func NewConfig(t *testing.T, opts ...Option) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.BaseDir = filepath.Join(base, "library")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Publish.Enabled = false
	cfg.Catalog.Enabled = false

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("create test directories: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}
