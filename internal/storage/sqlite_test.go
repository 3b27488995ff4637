package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/keydoru/keydoru/internal/enumerator"
	"github.com/keydoru/keydoru/internal/scoring"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func fp(v float64) *float64 { return &v }

func TestUpsertCandidates(t *testing.T) {
	store := newTestStore(t)

	first := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	batch := []enumerator.Suggestion{
		{Phrase: "wool socks", Source: "marketplace", Prefix: "wo", Rank: 0, Payload: "ep1", SeenAt: first},
		{Phrase: "wool socks", Source: "general", Prefix: "wo", Rank: 1, Payload: "ep2", SeenAt: first},
		{Phrase: "wool blanket", Source: "marketplace", Prefix: "wo", Rank: 1, Payload: "ep1", SeenAt: first},
	}
	if err := store.UpsertCandidates(batch); err != nil {
		t.Fatalf("UpsertCandidates failed: %v", err)
	}

	t.Run("MergesSourcesPerPhrase", func(t *testing.T) {
		records, err := store.ListKeywords()
		if err != nil {
			t.Fatalf("ListKeywords failed: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("got %d keywords, want 2", len(records))
		}
		// Ordered by phrase: blanket before socks.
		if records[0].Phrase != "wool blanket" || len(records[0].Sources) != 1 {
			t.Errorf("record 0 = %+v, want wool blanket from one source", records[0])
		}
		if records[1].Phrase != "wool socks" || len(records[1].Sources) != 2 {
			t.Errorf("record 1 = %+v, want wool socks from both sources", records[1])
		}
	})

	t.Run("RediscoveryRefreshesLastSeen", func(t *testing.T) {
		err := store.UpsertCandidates([]enumerator.Suggestion{
			{Phrase: "wool socks", Source: "marketplace", Prefix: "woo", Rank: 2, Payload: "ep1", SeenAt: later},
		})
		if err != nil {
			t.Fatalf("UpsertCandidates failed: %v", err)
		}

		records, err := store.ListKeywords()
		if err != nil {
			t.Fatalf("ListKeywords failed: %v", err)
		}
		var socks KeywordRecord
		for _, rec := range records {
			if rec.Phrase == "wool socks" {
				socks = rec
			}
		}
		if !socks.FirstSeen.Equal(first) {
			t.Errorf("FirstSeen = %v, want original %v", socks.FirstSeen, first)
		}
		if !socks.LastSeen.Equal(later) {
			t.Errorf("LastSeen = %v, want refreshed %v", socks.LastSeen, later)
		}
	})

	t.Run("EmptyBatchIsNoop", func(t *testing.T) {
		if err := store.UpsertCandidates(nil); err != nil {
			t.Errorf("empty batch should succeed: %v", err)
		}
	})

	t.Run("Counts", func(t *testing.T) {
		counts, err := store.Counts()
		if err != nil {
			t.Fatalf("Counts failed: %v", err)
		}
		// 3 (phrase, source) rows and 4 (phrase, source, prefix) rows.
		if counts["keywords"] != 3 {
			t.Errorf("keywords count = %d, want 3", counts["keywords"])
		}
		if counts["suggestions"] != 4 {
			t.Errorf("suggestions count = %d, want 4", counts["suggestions"])
		}
	})
}

func TestMetricUpserts(t *testing.T) {
	store := newTestStore(t)

	if err := store.UpsertSERPMetrics(SERPMetrics{
		Phrase: "wool socks", ResultsCount: fp(1200), AdRatio: fp(0.25),
	}); err != nil {
		t.Fatalf("UpsertSERPMetrics failed: %v", err)
	}

	if err := store.UpsertListingMetrics(ListingMetrics{
		Phrase: "wool socks", PriceMedian: fp(24.5), FavoritesAvg: fp(80),
		Dominance: fp(0.3), SampleSize: 20,
	}); err != nil {
		t.Fatalf("UpsertListingMetrics failed: %v", err)
	}

	if err := store.UpsertTrendMetrics(TrendMetrics{
		Phrase: "wool socks", TrendAvg: fp(41.5), Series: []float64{40, 43},
	}); err != nil {
		t.Fatalf("UpsertTrendMetrics failed: %v", err)
	}

	t.Run("OverwriteIsLastWriterWins", func(t *testing.T) {
		if err := store.UpsertSERPMetrics(SERPMetrics{
			Phrase: "wool socks", ResultsCount: fp(900),
		}); err != nil {
			t.Fatalf("second upsert failed: %v", err)
		}

		rows, err := store.AggregatedRows()
		if err != nil {
			t.Fatalf("AggregatedRows failed: %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("got %d rows, want 1", len(rows))
		}
		if rows[0].ResultsCount == nil || *rows[0].ResultsCount != 900 {
			t.Errorf("ResultsCount = %v, want overwritten 900", rows[0].ResultsCount)
		}
		// The overwrite carried a nil ad ratio and must clear the field.
		if rows[0].AdRatio != nil {
			t.Errorf("AdRatio = %v, want nil after overwrite", *rows[0].AdRatio)
		}
	})

	t.Run("CountsIncludeMetricTables", func(t *testing.T) {
		counts, err := store.Counts()
		if err != nil {
			t.Fatalf("Counts failed: %v", err)
		}
		for _, table := range []string{"serp_metrics", "listing_metrics", "trend_metrics"} {
			if counts[table] != 1 {
				t.Errorf("%s count = %d, want 1", table, counts[table])
			}
		}
	})
}

func TestAggregatedRowsJoinSemantics(t *testing.T) {
	store := newTestStore(t)

	// Three phrases, each present in a different subset of the metric
	// tables. Every phrase must appear exactly once.
	if err := store.UpsertSERPMetrics(SERPMetrics{Phrase: "alpha", ResultsCount: fp(10)}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertListingMetrics(ListingMetrics{Phrase: "beta", FavoritesAvg: fp(5), SampleSize: 3}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertTrendMetrics(TrendMetrics{Phrase: "alpha", TrendAvg: fp(60)}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertTrendMetrics(TrendMetrics{Phrase: "gamma", TrendAvg: fp(30)}); err != nil {
		t.Fatal(err)
	}

	rows, err := store.AggregatedRows()
	if err != nil {
		t.Fatalf("AggregatedRows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3 distinct phrases", len(rows))
	}

	byPhrase := make(map[string]scoring.Row)
	for _, r := range rows {
		byPhrase[r.Phrase] = r
	}

	alpha := byPhrase["alpha"]
	if alpha.ResultsCount == nil || *alpha.ResultsCount != 10 {
		t.Errorf("alpha.ResultsCount = %v, want 10", alpha.ResultsCount)
	}
	if alpha.TrendAvg == nil || *alpha.TrendAvg != 60 {
		t.Errorf("alpha.TrendAvg = %v, want 60", alpha.TrendAvg)
	}
	if alpha.FavoritesAvg != nil {
		t.Error("alpha.FavoritesAvg should be absent")
	}

	beta := byPhrase["beta"]
	if beta.FavoritesAvg == nil || *beta.FavoritesAvg != 5 {
		t.Errorf("beta.FavoritesAvg = %v, want 5", beta.FavoritesAvg)
	}
	if beta.ResultsCount != nil || beta.TrendAvg != nil {
		t.Error("beta should carry only listing metrics")
	}

	gamma := byPhrase["gamma"]
	if gamma.TrendAvg == nil || *gamma.TrendAvg != 30 {
		t.Errorf("gamma.TrendAvg = %v, want 30", gamma.TrendAvg)
	}
}

func TestReplaceSnapshots(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC()

	first := []scoring.Snapshot{
		{Phrase: "old one", Opportunity: 1, Components: map[string]float64{"trend": 1}, ComputedAt: now},
		{Phrase: "old two", Opportunity: 0.5, Components: map[string]float64{}, ComputedAt: now},
	}
	if err := store.ReplaceSnapshots("run-1", first); err != nil {
		t.Fatalf("ReplaceSnapshots failed: %v", err)
	}

	second := []scoring.Snapshot{
		{Phrase: "new one", Opportunity: 2, Components: map[string]float64{}, ComputedAt: now},
	}
	if err := store.ReplaceSnapshots("run-2", second); err != nil {
		t.Fatalf("ReplaceSnapshots failed: %v", err)
	}

	counts, err := store.Counts()
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts["snapshots"] != 1 {
		t.Errorf("snapshots count = %d, want 1 after replacement", counts["snapshots"])
	}
}

func TestRunMeta(t *testing.T) {
	store := newTestStore(t)

	if got, err := store.GetMeta("missing"); err != nil || got != "" {
		t.Errorf("GetMeta(missing) = (%q, %v), want empty and no error", got, err)
	}

	if err := store.SetMeta("last_discover_run", "run-1"); err != nil {
		t.Fatalf("SetMeta failed: %v", err)
	}
	if err := store.SetMeta("last_discover_run", "run-2"); err != nil {
		t.Fatalf("SetMeta overwrite failed: %v", err)
	}

	got, err := store.GetMeta("last_discover_run")
	if err != nil {
		t.Fatalf("GetMeta failed: %v", err)
	}
	if got != "run-2" {
		t.Errorf("GetMeta = %q, want latest value", got)
	}
}

func TestStoreReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "persist.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	err = store.UpsertCandidates([]enumerator.Suggestion{
		{Phrase: "ceramic mug", Source: "marketplace", Prefix: "ce", SeenAt: time.Now().UTC()},
	})
	if err != nil {
		t.Fatalf("UpsertCandidates failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	records, err := reopened.ListKeywords()
	if err != nil {
		t.Fatalf("ListKeywords failed: %v", err)
	}
	if len(records) != 1 || records[0].Phrase != "ceramic mug" {
		t.Errorf("reopened store lost data: %+v", records)
	}
}
