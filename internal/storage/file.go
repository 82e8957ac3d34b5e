package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/IshaanNene/auction-ingest/internal/types"
)

// BackupWriter writes indented JSON backups of a run:
// vehicles-<source>.json and inspections-<source>.json.
type BackupWriter struct {
	dir    string
	logger *slog.Logger
}

// NewBackupWriter creates a writer rooted at dir, creating it if needed.
func NewBackupWriter(dir string, logger *slog.Logger) (*BackupWriter, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &types.StorageError{Backend: "json", Err: fmt.Errorf("create output dir: %w", err)}
	}
	return &BackupWriter{
		dir:    dir,
		logger: logger.With("component", "json_backup"),
	}, nil
}

func (w *BackupWriter) Name() string { return "json" }

// VehiclesPath returns the item backup path for a source.
func (w *BackupWriter) VehiclesPath(src types.Source) string {
	return filepath.Join(w.dir, fmt.Sprintf("vehicles-%s.json", src))
}

// InspectionsPath returns the report backup path for a source.
func (w *BackupWriter) InspectionsPath(src types.Source) string {
	return filepath.Join(w.dir, fmt.Sprintf("inspections-%s.json", src))
}

func (w *BackupWriter) Store(_ context.Context, run *Run) error {
	items := run.Items
	if items == nil {
		items = []*types.AuctionItem{}
	}
	if err := w.write(w.VehiclesPath(run.Source), items); err != nil {
		return err
	}
	w.logger.Info("vehicles written", "path", w.VehiclesPath(run.Source), "items", len(items))

	reports := run.Reports
	if reports == nil {
		reports = []*types.InspectionReport{}
	}
	if err := w.write(w.InspectionsPath(run.Source), reports); err != nil {
		return err
	}
	w.logger.Info("inspections written", "path", w.InspectionsPath(run.Source), "reports", len(reports))
	return nil
}

func (w *BackupWriter) Close() error { return nil }

// write replaces path atomically so a crash never leaves half a backup.
func (w *BackupWriter) write(path string, v any) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return &types.StorageError{Backend: "json", Err: fmt.Errorf("create temp file: %w", err)}
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		return &types.StorageError{Backend: "json", Err: fmt.Errorf("encode JSON: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		return &types.StorageError{Backend: "json", Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &types.StorageError{Backend: "json", Err: fmt.Errorf("replace %s: %w", path, err)}
	}
	return nil
}
