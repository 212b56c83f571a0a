// Package store writes snapshots and weekday templates to the export
// directory and reads them back.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	appLog "schedsnap/internal/log"
	"schedsnap/internal/model"
)

// Exporter writes files into a single export directory. The directory is
// created on first use.
type Exporter struct {
	dir string
}

// NewExporter returns an Exporter rooted at dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir}
}

// Dir returns the export directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// SnapshotPath is where ExportSnapshot writes a snapshot with this uid.
func (e *Exporter) SnapshotPath(uid model.UID) string {
	return filepath.Join(e.dir, string(uid)+".json")
}

// TemplatePath is where ExportTemplate writes the template for day.
func (e *Exporter) TemplatePath(day model.Weekday) string {
	return filepath.Join(e.dir, day.String()+".json")
}

// ExportSnapshot writes s as <uid>.json and returns the path. The caller's
// snapshot is never modified; a copy with stale uids is re-derived before
// writing so that the file name and content always agree.
func (e *Exporter) ExportSnapshot(s model.Snapshot) (string, error) {
	if s.Stale() {
		appLog.Warn("export: snapshot uid was stale; re-deriving", "uid", s.UID.String())
		s = s.Clone()
		s.Rehash()
	}
	path := e.SnapshotPath(s.UID)
	if err := writeJSON(path, s); err != nil {
		return "", err
	}
	appLog.Info("snapshot exported", "path", path, "groups", len(s.Groups), "date", s.Date.String())
	return path, nil
}

// ExportTemplate writes d as <weekday>.json, e.g. monday.json.
func (e *Exporter) ExportTemplate(d model.DefaultDay) (string, error) {
	if !d.Day.Valid() {
		return "", fmt.Errorf("export template: invalid weekday %d", int(d.Day))
	}
	path := e.TemplatePath(d.Day)
	if err := writeJSON(path, d); err != nil {
		return "", err
	}
	appLog.Info("template exported", "path", path, "groups", len(d.Groups))
	return path, nil
}

// ExportFile writes raw bytes (calendar, image) as <uid><ext>.
func (e *Exporter) ExportFile(uid model.UID, ext string, data []byte) (string, error) {
	if uid == "" {
		return "", errors.New("export file: empty uid")
	}
	path := filepath.Join(e.dir, string(uid)+ext)
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}
	appLog.Info("file exported", "path", path, "bytes", len(data))
	return path, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data = append(data, '\n')
	return writeAtomic(path, data)
}

// writeAtomic writes through a temp file in the same directory and renames
// it over path, so readers never observe a half-written file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".schedsnap-*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadSnapshot loads a snapshot previously written by ExportSnapshot.
func ReadSnapshot(path string) (model.Snapshot, error) {
	var s model.Snapshot
	if err := readJSON(path, &s); err != nil {
		return model.Snapshot{}, err
	}
	return s, nil
}

// ReadTemplate loads a weekday template file.
func ReadTemplate(path string) (model.DefaultDay, error) {
	var d model.DefaultDay
	if err := readJSON(path, &d); err != nil {
		return model.DefaultDay{}, err
	}
	return d, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
