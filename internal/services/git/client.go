package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// VersionControl defines the repository operations the publish stage needs.
// Each step is independently fail-able; none of them roll back prior steps.
type VersionControl interface {
	// HasChanges reports whether the work tree has untracked, modified, or
	// deleted entries under the given paths (or anywhere when none given).
	HasChanges(ctx context.Context, paths ...string) (bool, error)
	// StageAll stages every change in the work tree.
	StageAll(ctx context.Context) error
	// Commit records the staged changes with the given message.
	Commit(ctx context.Context, message string) error
	// Push publishes committed history to the default remote.
	Push(ctx context.Context) error
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (string, error)
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

// Client wraps git CLI interactions against a single work tree.
type Client struct {
	binary   string
	workTree string
	exec     Executor
}

// New constructs a git client rooted at workTree.
func New(binary, workTree string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("git binary required")
	}
	workTree = strings.TrimSpace(workTree)
	if workTree == "" {
		return nil, errors.New("work tree required")
	}
	client := &Client{
		binary:   binary,
		workTree: workTree,
		exec:     commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// HasChanges runs a porcelain status check scoped to the given paths.
func (c *Client) HasChanges(ctx context.Context, paths ...string) (bool, error) {
	args := []string{"status", "--porcelain"}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	out, err := c.run(ctx, args...)
	if err != nil {
		return false, fmt.Errorf("status: %w", err)
	}
	return strings.TrimSpace(out) != "", nil
}

// StageAll stages every change in the work tree.
func (c *Client) StageAll(ctx context.Context) error {
	if _, err := c.run(ctx, "add", "--all"); err != nil {
		return fmt.Errorf("stage: %w", err)
	}
	return nil
}

// Commit records staged changes.
func (c *Client) Commit(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		return errors.New("commit message required")
	}
	if _, err := c.run(ctx, "commit", "-m", message); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Push publishes committed history to the default remote.
func (c *Client) Push(ctx context.Context) error {
	if _, err := c.run(ctx, "push"); err != nil {
		return fmt.Errorf("push: %w", err)
	}
	return nil
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	full := append([]string{"-C", c.workTree}, args...)
	return c.exec.Run(ctx, c.binary, full)
}

var _ VersionControl = (*Client)(nil)

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if detail != "" {
			return string(output), fmt.Errorf("run %s: %w: %s", binary, err, detail)
		}
		return string(output), fmt.Errorf("run %s: %w", binary, err)
	}
	return string(output), nil
}
