package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"shelver/internal/catalog"
	"shelver/internal/services"
	"shelver/internal/testsupport"
	"shelver/internal/workflow"
)

type fakeTranscoder struct {
	lowQualityCalls int
	previewCalls    int
	failLowQuality  bool
}

func (f *fakeTranscoder) DeriveLowQuality(_ context.Context, _, outputPath string) error {
	f.lowQualityCalls++
	if f.failLowQuality {
		return errors.New("encode failed")
	}
	return os.WriteFile(outputPath, []byte("lq"), 0o644)
}

func (f *fakeTranscoder) ExtractPreviewFrame(_ context.Context, _, outputPath string) error {
	f.previewCalls++
	return os.WriteFile(outputPath, []byte("jpg"), 0o644)
}

type fakeVCS struct {
	calls []string
	dirty bool
}

func (f *fakeVCS) HasChanges(_ context.Context, _ ...string) (bool, error) {
	f.calls = append(f.calls, "has-changes")
	return f.dirty, nil
}

func (f *fakeVCS) StageAll(_ context.Context) error {
	f.calls = append(f.calls, "stage")
	return nil
}

func (f *fakeVCS) Commit(_ context.Context, _ string) error {
	f.calls = append(f.calls, "commit")
	return nil
}

func (f *fakeVCS) Push(_ context.Context) error {
	f.calls = append(f.calls, "push")
	return nil
}

func TestRunIngestsHealsAndPublishes(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPublish(true))
	testsupport.WriteFile(t, filepath.Join(cfg.InboxDir(), "beach.mp4"), "raw-a")
	testsupport.WriteFile(t, filepath.Join(cfg.InboxDir(), "garden.mkv"), "raw-b")

	transcoder := &fakeTranscoder{}
	vcs := &fakeVCS{}
	manager := workflow.NewManagerWithDependencies(cfg, transcoder, vcs, nil, nil)

	summary, err := manager.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Processed != 2 || summary.Partial != 0 || summary.Skipped != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.NextID != 3 {
		t.Fatalf("expected next id 3, got %d", summary.NextID)
	}
	if !summary.Published {
		t.Fatalf("expected a published run: %+v", summary)
	}

	for id, ext := range map[int]string{1: ".mp4", 2: ".mkv"} {
		stem := strconv.Itoa(id)
		assertExists(t, filepath.Join(cfg.HighQualityDir(), stem+ext))
		assertExists(t, filepath.Join(cfg.LowQualityDir(), stem+".mp4"))
		assertExists(t, filepath.Join(cfg.PreviewDir(), stem+".jpg"))
	}

	inbox, err := os.ReadDir(cfg.InboxDir())
	if err != nil {
		t.Fatalf("read inbox: %v", err)
	}
	if len(inbox) != 0 {
		t.Fatalf("expected empty inbox, found %d entries", len(inbox))
	}

	wantCalls := []string{"stage", "commit", "push"}
	if len(vcs.calls) != len(wantCalls) {
		t.Fatalf("unexpected git calls: %v", vcs.calls)
	}
	for i, call := range wantCalls {
		if vcs.calls[i] != call {
			t.Fatalf("unexpected git calls: %v", vcs.calls)
		}
	}
}

func TestRunHealsExistingArchive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, filepath.Join(cfg.HighQualityDir(), "5.mp4"), "hq")

	transcoder := &fakeTranscoder{}
	manager := workflow.NewManagerWithDependencies(cfg, transcoder, nil, nil, nil)

	summary, err := manager.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Healed != 2 {
		t.Fatalf("expected 2 healed artifacts, got %+v", summary)
	}
	if summary.NextID != 6 {
		t.Fatalf("expected next id 6, got %d", summary.NextID)
	}
	assertExists(t, filepath.Join(cfg.LowQualityDir(), "5.mp4"))
	assertExists(t, filepath.Join(cfg.PreviewDir(), "5.jpg"))
}

func TestRunIsNoopWhenLibraryHealthy(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPublish(true))
	testsupport.WriteFile(t, filepath.Join(cfg.HighQualityDir(), "1.mp4"), "hq")
	testsupport.WriteFile(t, filepath.Join(cfg.LowQualityDir(), "1.mp4"), "lq")
	testsupport.WriteFile(t, filepath.Join(cfg.PreviewDir(), "1.jpg"), "jpg")

	transcoder := &fakeTranscoder{}
	vcs := &fakeVCS{}
	manager := workflow.NewManagerWithDependencies(cfg, transcoder, vcs, nil, nil)

	summary, err := manager.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Processed != 0 || summary.Healed != 0 || summary.Published {
		t.Fatalf("expected a no-op run, got %+v", summary)
	}
	if transcoder.lowQualityCalls != 0 || transcoder.previewCalls != 0 {
		t.Fatalf("healthy library must not invoke the transcoder: %+v", transcoder)
	}
	if len(vcs.calls) != 1 || vcs.calls[0] != "has-changes" {
		t.Fatalf("expected only a work tree check, got %v", vcs.calls)
	}
}

func TestRunDerivationFailureLeavesPartialForHealing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, filepath.Join(cfg.InboxDir(), "clip.mp4"), "raw")

	transcoder := &fakeTranscoder{failLowQuality: true}
	manager := workflow.NewManagerWithDependencies(cfg, transcoder, nil, nil, nil)

	summary, err := manager.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Partial != 1 || summary.Processed != 0 {
		t.Fatalf("expected one partial ingest, got %+v", summary)
	}

	// The identifier is consumed and the high-quality copy stands; a later
	// run with a working encoder heals the missing derivations.
	assertExists(t, filepath.Join(cfg.HighQualityDir(), "1.mp4"))
	if _, err := os.Stat(filepath.Join(cfg.LowQualityDir(), "1.mp4")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected missing low-quality copy, stat err: %v", err)
	}

	healing := &fakeTranscoder{}
	summary, err = workflow.NewManagerWithDependencies(cfg, healing, nil, nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("healing run returned error: %v", err)
	}
	if summary.Healed != 2 {
		t.Fatalf("expected healing to finish both artifacts, got %+v", summary)
	}
	if summary.NextID != 2 {
		t.Fatalf("expected next id 2 after healing run, got %d", summary.NextID)
	}
}

func TestRunStagesHealOnlyLeavesInboxUntouched(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, filepath.Join(cfg.InboxDir(), "waiting.mp4"), "raw")
	testsupport.WriteFile(t, filepath.Join(cfg.HighQualityDir(), "3.mp4"), "hq")

	transcoder := &fakeTranscoder{}
	manager := workflow.NewManagerWithDependencies(cfg, transcoder, nil, nil, nil)

	summary, err := manager.RunStages(context.Background(), workflow.Stages{Heal: true})
	if err != nil {
		t.Fatalf("RunStages returned error: %v", err)
	}
	if summary.Processed != 0 || summary.Healed != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	assertExists(t, filepath.Join(cfg.InboxDir(), "waiting.mp4"))
}

func TestRunAbortsWhenTranscoderMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Transcode.FFmpegBinary = "no-such-transcoder"
	t.Setenv("PATH", t.TempDir())
	testsupport.WriteFile(t, filepath.Join(cfg.InboxDir(), "clip.mp4"), "raw")

	manager, err := workflow.NewManager(cfg, nil)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}

	_, err = manager.Run(context.Background())
	if err == nil {
		t.Fatal("expected run to abort on missing transcoder binary")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	// The abort happens before any file is touched.
	assertExists(t, filepath.Join(cfg.InboxDir(), "clip.mp4"))
	archived, err := os.ReadDir(cfg.HighQualityDir())
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if len(archived) != 0 {
		t.Fatalf("expected empty archive, found %d entries", len(archived))
	}
}

func TestRunRecordsToCatalog(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCatalog())
	testsupport.WriteFile(t, filepath.Join(cfg.InboxDir(), "clip.mp4"), "raw")

	manager := workflow.NewManagerWithDependencies(cfg, &fakeTranscoder{}, nil, nil, nil)
	if _, err := manager.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	// The run owns the store it opened and closes it, so a second pass on
	// the same manager reopens the catalog cleanly.
	if _, err := manager.Run(context.Background()); err != nil {
		t.Fatalf("second Run returned error: %v", err)
	}

	store, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	defer store.Close()

	last, err := store.LastRun(context.Background())
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if last == nil {
		t.Fatal("expected a recorded run")
	}
	videos, err := store.ListVideos(context.Background())
	if err != nil {
		t.Fatalf("ListVideos: %v", err)
	}
	if len(videos) != 1 || videos[0].SourceName != "clip.mp4" {
		t.Fatalf("unexpected ledger rows: %+v", videos)
	}
}

func assertExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
}
