package pipeline

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/IshaanNene/auction-ingest/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestPipelineBasic(t *testing.T) {
	p := New(testLogger)
	p.Use(&TrimMiddleware{})

	item := types.NewAuctionItem(types.SourceAutomart, " automart:2026-17 ")
	item.ModelName = "  쏘나타  "
	item.ImageURLs = []string{" https://img/1.jpg ", "  ", "https://img/2.jpg"}

	result, err := p.Process(item)
	if err != nil {
		t.Fatalf("pipeline error: %v", err)
	}
	if result.SourceID != "automart:2026-17" || result.ModelName != "쏘나타" {
		t.Errorf("expected trimmed fields, got %q / %q", result.SourceID, result.ModelName)
	}
	if diff := cmp.Diff([]string{"https://img/1.jpg", "https://img/2.jpg"}, result.ImageURLs); diff != "" {
		t.Errorf("image urls mismatch (-want +got):\n%s", diff)
	}
}

type failingMiddleware struct{}

func (failingMiddleware) Name() string { return "failing" }
func (failingMiddleware) Process(*types.AuctionItem) (*types.AuctionItem, error) {
	return nil, errors.New("boom")
}

func TestRunSkipsRejectedItems(t *testing.T) {
	p := Default(testLogger)
	items := []*types.AuctionItem{
		types.NewAuctionItem(types.SourceOnbid, "onbid:1-1-1"),
		types.NewAuctionItem(types.SourceOnbid, "   "),
		types.NewAuctionItem(types.SourceOnbid, "onbid:2-1-1"),
	}
	out := p.Run(items)
	if len(out) != 2 || out[0].SourceID != "onbid:1-1-1" || out[1].SourceID != "onbid:2-1-1" {
		t.Fatalf("unexpected run output: %+v", out)
	}

	p.Use(failingMiddleware{})
	if out := p.Run(items); len(out) != 0 {
		t.Errorf("expected failing stage to reject every item, got %d", len(out))
	}
	if p.Len() != 5 {
		t.Errorf("Len = %d, want 5", p.Len())
	}
}

func TestTerminalConsistencyMiddleware(t *testing.T) {
	m := &TerminalConsistencyMiddleware{}

	orphan := types.NewAuctionItem(types.SourceAutomart, "a")
	orphan.FinalPrice = types.Int64(1000)
	result, _ := m.Process(orphan)
	if result.FinalPrice != nil {
		t.Error("final price without a result should be dropped")
	}

	failed := types.NewAuctionItem(types.SourceAutomart, "c")
	failed.ResultStatus = types.StatusFailed
	failed.FinalPrice = types.Int64(3000)
	result, _ = m.Process(failed)
	if result.FinalPrice != nil || result.Status != types.StatusFailed {
		t.Errorf("failed item = status %q final %v", result.Status, result.FinalPrice)
	}

	pending := types.NewAuctionItem(types.SourceOnbid, "d")
	pending.ResultStatus = types.StatusBidding
	pending.FinalPrice = types.Int64(7000)
	result, _ = m.Process(pending)
	if result.ResultStatus != "" || result.FinalPrice != nil {
		t.Errorf("unresolved result kept: %q %v", result.ResultStatus, result.FinalPrice)
	}

	sold := types.NewAuctionItem(types.SourceAutomart, "b")
	sold.ResultStatus = types.StatusSold
	sold.FinalPrice = types.Int64(5000)
	result, _ = m.Process(sold)
	if result.Status != types.StatusSold || result.FinalPrice == nil {
		t.Errorf("sold item = status %q final %v", result.Status, result.FinalPrice)
	}
}

func TestDeduplicate(t *testing.T) {
	first := types.NewAuctionItem(types.SourceAutomart, "automart:1")
	first.ModelName = "old"
	second := types.NewAuctionItem(types.SourceAutomart, "automart:2")
	third := types.NewAuctionItem(types.SourceAutomart, "automart:3")
	again := types.NewAuctionItem(types.SourceAutomart, "automart:1")
	again.ModelName = "new"

	unique, dups := Deduplicate([]*types.AuctionItem{first, second, again, third})
	if dups != 1 {
		t.Errorf("duplicates = %d, want 1", dups)
	}
	var got []string
	for _, it := range unique {
		got = append(got, it.SourceID+"="+it.ModelName)
	}
	want := []string{"automart:1=new", "automart:2=", "automart:3="}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dedup mismatch (-want +got):\n%s", diff)
	}
}

func TestDeduplicateDistinct(t *testing.T) {
	items := []*types.AuctionItem{
		types.NewAuctionItem(types.SourceCourtAuction, "court:2025타경1:1"),
		types.NewAuctionItem(types.SourceCourtAuction, "court:2025타경1:2"),
	}
	unique, dups := Deduplicate(items)
	if dups != 0 || len(unique) != 2 {
		t.Errorf("got %d unique, %d dups; want 2, 0", len(unique), dups)
	}
}
