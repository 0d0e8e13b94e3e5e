package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranscode(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTranscode() error {
	if c.Transcode.CRF < 0 || c.Transcode.CRF > 51 {
		return fmt.Errorf("transcode.crf must be between 0 and 51, got %d", c.Transcode.CRF)
	}
	if c.Transcode.PreviewWidth < 16 {
		return fmt.Errorf("transcode.preview_width must be at least 16, got %d", c.Transcode.PreviewWidth)
	}
	if c.Transcode.PreviewWidth%2 != 0 {
		return fmt.Errorf("transcode.preview_width must be even, got %d", c.Transcode.PreviewWidth)
	}
	return nil
}

func (c *Config) validatePublish() error {
	if !c.Publish.Enabled {
		return nil
	}
	if c.Publish.CommitMessage == "" {
		return errors.New("publish.commit_message must be set when publishing is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format must be auto, console, or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
