package adapter

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/IshaanNene/auction-ingest/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestNewKnownSources(t *testing.T) {
	tests := []struct {
		name     string
		wantSrc  types.Source
		wantName string
	}{
		{"automart", types.SourceAutomart, "Automart Scraper"},
		{"court_auction", types.SourceCourtAuction, "법원경매"},
		{" ONBID ", types.SourceOnbid, "온비드"},
	}
	for _, tt := range tests {
		a, err := New(tt.name, testLogger, Deps{})
		if err != nil {
			t.Fatalf("New(%q): %v", tt.name, err)
		}
		if a.Source() != tt.wantSrc || a.Name() != tt.wantName {
			t.Errorf("New(%q) = %s/%s, want %s/%s", tt.name, a.Source(), a.Name(), tt.wantSrc, tt.wantName)
		}
	}
}

func TestNewUnknownSource(t *testing.T) {
	_, err := New("encar", testLogger, Deps{})
	if !errors.Is(err, types.ErrUnknownSource) {
		t.Fatalf("expected ErrUnknownSource, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := Default()
	want := []types.Source{types.SourceAutomart, types.SourceCourtAuction, types.SourceOnbid}
	if diff := cmp.Diff(want, r.Sources()); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}

	if err := r.Register(Entry{Source: types.SourceOnbid}); err == nil {
		t.Error("expected duplicate registration to fail")
	}

	onbid, err := r.Lookup("onbid")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if onbid.NeedsBrowser {
		t.Error("onbid should not need a browser")
	}
	automart, _ := r.Lookup("automart")
	if !automart.NeedsBrowser {
		t.Error("automart should need a browser")
	}
}
