package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"shelver/internal/config"
)

// Video file extensions accepted from the inbox.
var inboxExtensions = map[string]struct{}{
	".mp4":  {},
	".mkv":  {},
	".avi":  {},
	".mov":  {},
	".webm": {},
}

// Layout names the four working directories of one archive tree.
type Layout struct {
	Inbox       string
	HighQuality string
	LowQuality  string
	Preview     string
}

// NewLayout derives the archive layout from configuration.
func NewLayout(cfg *config.Config) Layout {
	return Layout{
		Inbox:       cfg.InboxDir(),
		HighQuality: cfg.HighQualityDir(),
		LowQuality:  cfg.LowQualityDir(),
		Preview:     cfg.PreviewDir(),
	}
}

// ArchiveDirs returns the three directories holding permanent artifacts, in a
// fixed order suitable for scoped git status checks.
func (l Layout) ArchiveDirs() []string {
	return []string{l.HighQuality, l.LowQuality, l.Preview}
}

// HighQualityPath names the archival copy for an identifier, keeping the
// source file's extension.
func (l Layout) HighQualityPath(id int64, ext string) string {
	if ext == "" {
		ext = ".mp4"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(l.HighQuality, strconv.FormatInt(id, 10)+ext)
}

// LowQualityPath names the derived compressed copy for an identifier.
func (l Layout) LowQualityPath(id int64) string {
	return filepath.Join(l.LowQuality, strconv.FormatInt(id, 10)+".mp4")
}

// PreviewPath names the derived still frame for an identifier.
func (l Layout) PreviewPath(id int64) string {
	return filepath.Join(l.Preview, strconv.FormatInt(id, 10)+".jpg")
}

// Record locates one archived video's high-quality copy.
type Record struct {
	ID          int64
	HighQuality string
}

// ListInbox enumerates raw video files awaiting ingestion, sorted
// lexicographically so identifier assignment is reproducible.
func ListInbox(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read inbox: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := inboxExtensions[ext]; !ok {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// ListArchive enumerates archived high-quality files with numeric stems,
// sorted by identifier. Files that do not parse as identifiers are ignored.
func ListArchive(dir string) ([]Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	var records []Record
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		id, err := strconv.ParseInt(stem, 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		records = append(records, Record{ID: id, HighQuality: filepath.Join(dir, name)})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// MaxID returns the highest identifier present in the high-quality archive,
// or 0 when the archive holds none.
func MaxID(dir string) (int64, error) {
	records, err := ListArchive(dir)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	return records[len(records)-1].ID, nil
}
