package logging_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shelver/internal/logging"
)

func TestConsoleFormatWritesFlatKeyValues(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "ingest")
	logger.Info("copied file",
		logging.Int64(logging.FieldVideoID, 4),
		logging.String(logging.FieldPath, "/tmp/clip one.mp4"),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "INFO ingest: copied file") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "video_id=4") {
		t.Fatalf("expected video_id attr, got %q", line)
	}
	if !strings.Contains(line, `path="/tmp/clip one.mp4"`) {
		t.Fatalf("expected quoted path attr, got %q", line)
	}
}

func TestConsoleFormatRespectsLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "warn",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("surfaced", logging.Error(errors.New("boom")))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "suppressed") {
		t.Fatalf("info record should have been suppressed: %q", content)
	}
	if !strings.Contains(string(content), "error=boom") {
		t.Fatalf("expected error attr, got %q", content)
	}
}

func TestJSONFormat(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")

	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("published", logging.Bool("pushed", true))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"msg":"published"`) {
		t.Fatalf("expected JSON record, got %q", content)
	}
	if !strings.Contains(string(content), `"pushed":true`) {
		t.Fatalf("expected pushed attr, got %q", content)
	}
}

func TestUnsupportedFormatRejected(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
