package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/IshaanNene/auction-ingest/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func sampleRun() *Run {
	item := types.NewAuctionItem(types.SourceAutomart, "automart:2026-17")
	item.ModelName = "아반떼 <CN7>"
	return &Run{
		ID:     "run-1",
		Source: types.SourceAutomart,
		Items:  []*types.AuctionItem{item},
	}
}

func TestBackupWriterWritesVehicles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w, err := NewBackupWriter(dir, testLogger)
	if err != nil {
		t.Fatalf("NewBackupWriter: %v", err)
	}

	run := sampleRun()
	if err := w.Store(context.Background(), run); err != nil {
		t.Fatalf("Store: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "vehicles-automart.json"))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	var got []map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("backup is not JSON: %v", err)
	}
	if len(got) != 1 || got[0]["sourceId"] != "automart:2026-17" || got[0]["modelName"] != "아반떼 <CN7>" {
		t.Errorf("unexpected backup content: %v", got)
	}
	raw, err = os.ReadFile(w.InspectionsPath(types.SourceAutomart))
	if err != nil {
		t.Fatalf("read inspections: %v", err)
	}
	if string(raw) != "[]\n" {
		t.Errorf("inspections backup = %q, want []", raw)
	}
}

func TestBackupWriterWritesInspections(t *testing.T) {
	w, err := NewBackupWriter(t.TempDir(), testLogger)
	if err != nil {
		t.Fatalf("NewBackupWriter: %v", err)
	}
	run := sampleRun()
	run.Reports = []*types.InspectionReport{{
		VehicleSourceID: "automart:2026-17",
		MgmtNumber:      "2026-17",
		ReportURL:       "https://example.com/r",
		Data:            types.InspectionReportData{SpecialNotes: "침수 이력 없음"},
	}}
	if err := w.Store(context.Background(), run); err != nil {
		t.Fatalf("Store: %v", err)
	}

	raw, err := os.ReadFile(w.InspectionsPath(types.SourceAutomart))
	if err != nil {
		t.Fatalf("read inspections: %v", err)
	}
	var got []*types.InspectionReport
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(run.Reports, got); diff != "" {
		t.Errorf("inspections mismatch (-want +got):\n%s", diff)
	}
}

func TestBackupWriterEmptyRun(t *testing.T) {
	w, err := NewBackupWriter(t.TempDir(), testLogger)
	if err != nil {
		t.Fatalf("NewBackupWriter: %v", err)
	}
	if err := w.Store(context.Background(), &Run{Source: types.SourceOnbid}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	raw, err := os.ReadFile(w.VehiclesPath(types.SourceOnbid))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(raw) != "[]\n" {
		t.Errorf("empty run backup = %q, want []", raw)
	}
}

func TestNewMongoArchiveRejectsBadURI(t *testing.T) {
	_, err := NewMongoArchive(context.Background(), "not-a-mongo-uri", "db", "runs", testLogger)
	var se *types.StorageError
	if !errors.As(err, &se) || se.Backend != "mongodb" {
		t.Fatalf("expected mongodb StorageError, got %v", err)
	}
}

func TestItemDocuments(t *testing.T) {
	docs := itemDocuments(sampleRun())
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	doc := docs[0].(bson.M)
	if doc["run_id"] != "run-1" || doc["source_id"] != "automart:2026-17" || doc["source"] != "automart" {
		t.Errorf("unexpected document %v", doc)
	}
}
