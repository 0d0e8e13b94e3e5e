package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Transcoder defines the derivation behaviour required by the pipeline
// stages. Implementations produce the target file or fail; no partial
// outputs are reported.
type Transcoder interface {
	// DeriveLowQuality transcodes inputPath into a scaled-down x264 copy at
	// outputPath.
	DeriveLowQuality(ctx context.Context, inputPath, outputPath string) error
	// ExtractPreviewFrame writes a single still frame from inputPath to
	// outputPath, seeking one second in.
	ExtractPreviewFrame(ctx context.Context, inputPath, outputPath string) error
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onOutput func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Settings carries the derivation parameters from configuration.
type Settings struct {
	// CRF is the x264 constant rate factor; lower means higher quality.
	CRF int
	// Preset is the x264 encoding preset.
	Preset string
	// Width is the target width of the low-quality copy in pixels. Height
	// follows the source aspect ratio, rounded to an even value.
	Width int
}

// Client wraps ffmpeg CLI interactions.
type Client struct {
	binary   string
	settings Settings
	exec     Executor
}

// New constructs an ffmpeg client.
func New(binary string, settings Settings, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	client := &Client{
		binary:   binary,
		settings: settings,
		exec:     commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// DeriveLowQuality transcodes the high-quality source into the compressed
// archive copy.
func (c *Client) DeriveLowQuality(ctx context.Context, inputPath, outputPath string) error {
	if inputPath == "" {
		return errors.New("input path required")
	}
	if outputPath == "" {
		return errors.New("output path required")
	}

	// scale=<w>:-2 preserves the aspect ratio while keeping the height even,
	// which libx264 requires.
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", inputPath,
		"-vf", fmt.Sprintf("scale=%d:-2", c.settings.Width),
		"-c:v", "libx264",
		"-preset", c.settings.Preset,
		"-crf", strconv.Itoa(c.settings.CRF),
		"-c:a", "aac",
		"-movflags", "+faststart",
		outputPath,
	}
	if err := c.run(ctx, args); err != nil {
		return fmt.Errorf("derive low quality: %w", err)
	}
	return nil
}

// ExtractPreviewFrame grabs one frame from the source one second in.
func (c *Client) ExtractPreviewFrame(ctx context.Context, inputPath, outputPath string) error {
	if inputPath == "" {
		return errors.New("input path required")
	}
	if outputPath == "" {
		return errors.New("output path required")
	}

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-ss", "1",
		"-i", inputPath,
		"-frames:v", "1",
		"-q:v", "2",
		outputPath,
	}
	if err := c.run(ctx, args); err != nil {
		return fmt.Errorf("extract preview frame: %w", err)
	}
	return nil
}

func (c *Client) run(ctx context.Context, args []string) error {
	var tail []string
	err := c.exec.Run(ctx, c.binary, args, func(line string) {
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}
		// Keep the last few diagnostic lines for error context.
		tail = append(tail, line)
		if len(tail) > 5 {
			tail = tail[1:]
		}
	})
	if err != nil {
		if len(tail) > 0 {
			return fmt.Errorf("%w: %s", err, strings.Join(tail, "; "))
		}
		return err
	}
	return nil
}

var _ Transcoder = (*Client)(nil)

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if onOutput != nil {
		for line := range strings.Lines(string(output)) {
			onOutput(line)
		}
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", binary, err)
	}
	return nil
}
