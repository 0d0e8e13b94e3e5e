package ingest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"shelver/internal/config"
	"shelver/internal/ingest"
	"shelver/internal/library"
	"shelver/internal/logging"
)

type fakeTranscoder struct {
	lowQualityCalls int
	previewCalls    int
	failLowQuality  bool
	failPreview     bool
}

func (f *fakeTranscoder) DeriveLowQuality(ctx context.Context, inputPath, outputPath string) error {
	f.lowQualityCalls++
	if f.failLowQuality {
		return errors.New("transcode failed")
	}
	return os.WriteFile(outputPath, []byte("lq"), 0o644)
}

func (f *fakeTranscoder) ExtractPreviewFrame(ctx context.Context, inputPath, outputPath string) error {
	f.previewCalls++
	if f.failPreview {
		return errors.New("frame extraction failed")
	}
	return os.WriteFile(outputPath, []byte("jpg"), 0o644)
}

type recordedIngest struct {
	id         int64
	sourceName string
	lowQuality bool
	preview    bool
}

type fakeRecorder struct {
	ingests []recordedIngest
	err     error
}

func (f *fakeRecorder) RecordIngest(ctx context.Context, id int64, sourceName string, lowQuality, preview bool) error {
	f.ingests = append(f.ingests, recordedIngest{id, sourceName, lowQuality, preview})
	return f.err
}

func newLayout(t *testing.T) library.Layout {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = filepath.Join(t.TempDir(), "videos")
	cfg.Paths.LogDir = filepath.Join(cfg.Paths.BaseDir, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return library.NewLayout(&cfg)
}

func addInbox(t *testing.T, layout library.Layout, name string) string {
	t.Helper()
	path := filepath.Join(layout.Inbox, name)
	if err := os.WriteFile(path, []byte("raw video"), 0o644); err != nil {
		t.Fatalf("write inbox file: %v", err)
	}
	return path
}

func TestRunArchivesInboxInOrder(t *testing.T) {
	layout := newLayout(t)
	addInbox(t, layout, "beta.mp4")
	addInbox(t, layout, "alpha.mkv")

	transcoder := &fakeTranscoder{}
	recorder := &fakeRecorder{}
	seq := ingest.New(layout, transcoder, recorder, logging.NewNop())

	result, err := seq.Run(context.Background(), 5)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Processed != 2 || result.Partial != 0 || result.Skipped != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.NextID != 7 {
		t.Fatalf("expected next id 7, got %d", result.NextID)
	}
	if !result.Changed {
		t.Fatal("expected change flag set")
	}

	// Lexicographic order: alpha.mkv gets 5, beta.mp4 gets 6.
	for _, path := range []string{
		layout.HighQualityPath(5, ".mkv"),
		layout.HighQualityPath(6, ".mp4"),
		layout.LowQualityPath(5),
		layout.LowQualityPath(6),
		layout.PreviewPath(5),
		layout.PreviewPath(6),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected artifact %s: %v", path, err)
		}
	}

	remaining, err := library.ListInbox(layout.Inbox)
	if err != nil {
		t.Fatalf("ListInbox: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected empty inbox, got %v", remaining)
	}

	if len(recorder.ingests) != 2 {
		t.Fatalf("expected 2 catalog records, got %v", recorder.ingests)
	}
	if recorder.ingests[0].id != 5 || recorder.ingests[0].sourceName != "alpha.mkv" {
		t.Fatalf("unexpected first record: %+v", recorder.ingests[0])
	}
}

func TestRunLowQualityFailureLeavesPartial(t *testing.T) {
	layout := newLayout(t)
	raw := addInbox(t, layout, "clip.mp4")

	transcoder := &fakeTranscoder{failLowQuality: true}
	seq := ingest.New(layout, transcoder, nil, logging.NewNop())

	result, err := seq.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Partial != 1 || result.Processed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.NextID != 2 {
		t.Fatalf("identifier should be consumed once HQ copy exists, got next id %d", result.NextID)
	}
	if !result.Changed {
		t.Fatal("expected change flag set by HQ copy")
	}

	if _, err := os.Stat(layout.HighQualityPath(1, ".mp4")); err != nil {
		t.Fatalf("expected HQ copy to stand: %v", err)
	}
	if _, err := os.Stat(raw); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected raw file consumed after successful copy, got %v", err)
	}
	if transcoder.previewCalls != 0 {
		t.Fatal("preview should not be attempted without a low-quality source")
	}
}

func TestRunPreviewFailureStillConsumesRaw(t *testing.T) {
	layout := newLayout(t)
	addInbox(t, layout, "clip.mp4")

	transcoder := &fakeTranscoder{failPreview: true}
	recorder := &fakeRecorder{}
	seq := ingest.New(layout, transcoder, recorder, logging.NewNop())

	result, err := seq.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Partial != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if _, err := os.Stat(layout.LowQualityPath(1)); err != nil {
		t.Fatalf("expected LQ copy: %v", err)
	}
	if recorder.ingests[0].lowQuality != true || recorder.ingests[0].preview != false {
		t.Fatalf("unexpected record flags: %+v", recorder.ingests[0])
	}
}

func TestRunEmptyInboxIsNoop(t *testing.T) {
	layout := newLayout(t)
	transcoder := &fakeTranscoder{}
	seq := ingest.New(layout, transcoder, nil, logging.NewNop())

	result, err := seq.Run(context.Background(), 4)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Changed || result.NextID != 4 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if transcoder.lowQualityCalls != 0 {
		t.Fatal("expected no transcoder invocations")
	}
}

func TestRunUnreadableInboxReturnsError(t *testing.T) {
	layout := newLayout(t)
	layout.Inbox = filepath.Join(layout.Inbox, "missing")
	seq := ingest.New(layout, &fakeTranscoder{}, nil, logging.NewNop())
	if _, err := seq.Run(context.Background(), 1); err == nil {
		t.Fatal("expected error for unreadable inbox")
	}
}
