package analytics

import (
	"strings"
	"testing"

	"ticker-tape/internal/domain"
)

func TestPercentChange(t *testing.T) {
	t.Parallel()

	snapshots := []domain.Snapshot{
		{Ticker: "LMT", PrevDay: []domain.SnapshotBar{{Open: 100, Close: 110}}},
		{Ticker: "RTX", PrevDay: []domain.SnapshotBar{{Open: 50, Close: 45}}},
	}

	rows := PercentChange(snapshots)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].PercentChange != 10 {
		t.Fatalf("expected +10%%, got %v", rows[0].PercentChange)
	}
	if rows[1].PercentChange != -10 {
		t.Fatalf("expected -10%%, got %v", rows[1].PercentChange)
	}
}

func TestPercentChangeSkipsBadRecords(t *testing.T) {
	t.Parallel()

	snapshots := []domain.Snapshot{
		{Ticker: "BA"},
		{Ticker: "NOC", PrevDay: []domain.SnapshotBar{{Open: 0, Close: 10}}},
		{Ticker: "GD", PrevDay: []domain.SnapshotBar{{Open: 200, Close: 201}}},
	}

	rows := PercentChange(snapshots)
	if len(rows) != 1 || rows[0].Ticker != "GD" {
		t.Fatalf("expected only GD, got %+v", rows)
	}
}

func TestFormatPercentChangeLayout(t *testing.T) {
	t.Parallel()

	out := FormatPercentChange([]PercentChangeRow{
		{Ticker: "LMT", Open: 100, Close: 110, PercentChange: 10},
	})
	if !strings.Contains(out, "LMT") {
		t.Fatalf("missing ticker: %q", out)
	}
	if !strings.Contains(out, "10.00 %") {
		t.Fatalf("missing percent formatting: %q", out)
	}
}
