package main

import (
	"path/filepath"
	"testing"

	"shelver/internal/testsupport"
)

func TestStatusRendersArchiveTable(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, filepath.Join(env.cfg.HighQualityDir(), "1.mp4"), "hq")
	testsupport.WriteFile(t, filepath.Join(env.cfg.LowQualityDir(), "1.mp4"), "lq")
	testsupport.WriteFile(t, filepath.Join(env.cfg.HighQualityDir(), "2.mkv"), "hq")
	testsupport.WriteFile(t, filepath.Join(env.cfg.InboxDir(), "pending.mp4"), "raw")

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}

	requireContains(t, out, "Inbox: 1 file(s) awaiting ingestion")
	requireContains(t, out, "ID")
	requireContains(t, out, "DEPENDENCY")
	// Identifier 2 has no derived artifacts yet.
	requireContains(t, out, "no")
}

func TestStatusOnEmptyArchive(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Archive is empty.")
}
