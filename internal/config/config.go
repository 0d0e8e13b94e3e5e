package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration. Every archive directory is derived
// from BaseDir so the whole library stays inside one git work tree.
type Paths struct {
	BaseDir string `toml:"base_dir"`
	LogDir  string `toml:"log_dir"`
}

// Transcode contains configuration for deriving low-quality copies and
// preview frames with ffmpeg.
type Transcode struct {
	FFmpegBinary string `toml:"ffmpeg_binary"`
	// CRF is the x264 constant rate factor for the low-quality copy.
	// Lower means higher quality; the useful range is roughly 17-28.
	CRF          int    `toml:"crf"`
	Preset       string `toml:"preset"`
	PreviewWidth int    `toml:"preview_width"`
}

// Publish contains configuration for syncing the archive to a git remote.
type Publish struct {
	Enabled       bool   `toml:"enabled"`
	GitBinary     string `toml:"git_binary"`
	CommitMessage string `toml:"commit_message"`
	Push          bool   `toml:"push"`
}

// Catalog contains configuration for the SQLite run ledger.
type Catalog struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // Default: <log_dir>/catalog.db
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for shelver.
//
// Configuration sections by subsystem:
//   - Paths: base directory holding the inbox and archive tree, log directory
//   - Transcode: ffmpeg binary and low-quality/preview derivation parameters
//   - Publish: git binary, commit message, and push behaviour
//   - Catalog: SQLite run ledger location
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Transcode Transcode `toml:"transcode"`
	Publish   Publish   `toml:"publish"`
	Catalog   Catalog   `toml:"catalog"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/shelver/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shelver.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// InboxDir returns the directory watched for raw, not-yet-archived videos.
func (c *Config) InboxDir() string {
	return filepath.Join(c.Paths.BaseDir, "raw")
}

// HighQualityDir returns the archive directory for high-quality copies.
func (c *Config) HighQualityDir() string {
	return filepath.Join(c.Paths.BaseDir, "vidHQ")
}

// LowQualityDir returns the archive directory for low-quality copies.
func (c *Config) LowQualityDir() string {
	return filepath.Join(c.Paths.BaseDir, "vidLQ")
}

// PreviewDir returns the archive directory for preview frames.
func (c *Config) PreviewDir() string {
	return filepath.Join(c.Paths.BaseDir, "previews")
}

// EnsureDirectories creates the working directories the pipeline requires.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.InboxDir(),
		c.HighQualityDir(),
		c.LowQualityDir(),
		c.PreviewDir(),
		c.Paths.LogDir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
