package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTranscode()
	c.normalizePublish()
	if err := c.normalizeCatalog(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.BaseDir) == "" {
		c.Paths.BaseDir = defaultBaseDir
	}
	if c.Paths.BaseDir, err = expandPath(c.Paths.BaseDir); err != nil {
		return fmt.Errorf("paths.base_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranscode() {
	if strings.TrimSpace(c.Transcode.FFmpegBinary) == "" {
		c.Transcode.FFmpegBinary = defaultFFmpegBinary
	}
	if c.Transcode.CRF == 0 {
		c.Transcode.CRF = defaultCRF
	}
	if strings.TrimSpace(c.Transcode.Preset) == "" {
		c.Transcode.Preset = defaultPreset
	}
	if c.Transcode.PreviewWidth == 0 {
		c.Transcode.PreviewWidth = defaultPreviewWidth
	}
}

func (c *Config) normalizePublish() {
	if strings.TrimSpace(c.Publish.GitBinary) == "" {
		c.Publish.GitBinary = defaultGitBinary
	}
	if strings.TrimSpace(c.Publish.CommitMessage) == "" {
		c.Publish.CommitMessage = defaultCommitMessage
	}
}

func (c *Config) normalizeCatalog() error {
	if strings.TrimSpace(c.Catalog.Path) == "" {
		c.Catalog.Path = filepath.Join(c.Paths.LogDir, "catalog.db")
		return nil
	}
	expanded, err := expandPath(c.Catalog.Path)
	if err != nil {
		return fmt.Errorf("catalog.path: %w", err)
	}
	c.Catalog.Path = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
