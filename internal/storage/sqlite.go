// Package storage provides data persistence for keydoru. It implements
// SQLite-based storage for discovered keywords, per-keyword metric
// rows, opportunity snapshots, and run metadata.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/keydoru/keydoru/internal/enumerator"
	"github.com/keydoru/keydoru/internal/scoring"
	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"
)

// KeywordRecord is the source-agnostic view of one discovered phrase,
// merging all (phrase, source) rows by phrase.
type KeywordRecord struct {
	Phrase    string
	Sources   []string
	FirstSeen time.Time
	LastSeen  time.Time
}

// SERPMetrics is the search-result metadata row for one keyword.
type SERPMetrics struct {
	Phrase       string
	ResultsCount *float64
	AdRatio      *float64
}

// ListingMetrics is the sampled-listing metrics row for one keyword.
type ListingMetrics struct {
	Phrase          string
	PriceMedian     *float64
	PriceDispersion *float64
	FavoritesAvg    *float64
	ReviewVelocity  *float64
	Dominance       *float64
	SampleSize      int
}

// TrendMetrics is the trend-series row for one keyword.
type TrendMetrics struct {
	Phrase   string
	TrendAvg *float64
	Series   []float64
}

// SQLiteStore implements persistence on a single SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database and initializes the
// schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection prevents lock conflicts
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 30000",
	}

	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertCandidates writes one prefix's suggestions in a single
// transaction. Keyword rows refresh last_seen on conflict; suggestion
// rows update rank, payload and fetched_at without changing identity.
func (s *SQLiteStore) UpsertCandidates(batch []enumerator.Suggestion) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	keywordStmt, err := tx.Prepare(`
		INSERT INTO keywords (phrase, source, first_seen, last_seen)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(phrase, source) DO UPDATE SET last_seen = excluded.last_seen
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare keyword statement: %w", err)
	}
	defer func() { _ = keywordStmt.Close() }()

	suggestionStmt, err := tx.Prepare(`
		INSERT INTO suggestions (phrase, source, prefix, rank, payload, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(phrase, source, prefix) DO UPDATE SET
			rank = excluded.rank,
			payload = excluded.payload,
			fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare suggestion statement: %w", err)
	}
	defer func() { _ = suggestionStmt.Close() }()

	for _, sug := range batch {
		seenAt := sug.SeenAt
		if seenAt.IsZero() {
			seenAt = time.Now().UTC()
		}
		ts := formatTime(seenAt)
		if _, err := keywordStmt.Exec(sug.Phrase, sug.Source, ts, ts); err != nil {
			return fmt.Errorf("failed to upsert keyword %q: %w", sug.Phrase, err)
		}
		if _, err := suggestionStmt.Exec(sug.Phrase, sug.Source, sug.Prefix, sug.Rank, sug.Payload, ts); err != nil {
			return fmt.Errorf("failed to upsert suggestion %q: %w", sug.Phrase, err)
		}
	}

	return tx.Commit()
}

// ListKeywords returns one record per distinct phrase with the set of
// all sources that ever produced it, ordered by phrase.
func (s *SQLiteStore) ListKeywords() ([]KeywordRecord, error) {
	rows, err := s.db.Query(`
		SELECT phrase,
		       GROUP_CONCAT(DISTINCT source),
		       MIN(first_seen),
		       MAX(last_seen)
		FROM keywords
		GROUP BY phrase
		ORDER BY phrase
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query keywords: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []KeywordRecord
	for rows.Next() {
		var rec KeywordRecord
		var sources, firstSeen, lastSeen string
		if err := rows.Scan(&rec.Phrase, &sources, &firstSeen, &lastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		rec.Sources = splitSources(sources)
		rec.FirstSeen = parseTime(firstSeen)
		rec.LastSeen = parseTime(lastSeen)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// UpsertSERPMetrics overwrites the SERP metric row for a keyword
// (last-writer-wins per run).
func (s *SQLiteStore) UpsertSERPMetrics(m SERPMetrics) error {
	_, err := s.db.Exec(`
		INSERT INTO serp_metrics (phrase, results_count, ad_ratio, collected_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(phrase) DO UPDATE SET
			results_count = excluded.results_count,
			ad_ratio = excluded.ad_ratio,
			collected_at = excluded.collected_at
	`, m.Phrase, nullable(m.ResultsCount), nullable(m.AdRatio), formatTime(time.Now().UTC()))

	if err != nil {
		return fmt.Errorf("failed to upsert serp metrics for %q: %w", m.Phrase, err)
	}
	return nil
}

// UpsertListingMetrics overwrites the listing metric row for a keyword.
func (s *SQLiteStore) UpsertListingMetrics(m ListingMetrics) error {
	_, err := s.db.Exec(`
		INSERT INTO listing_metrics (
			phrase, price_median, price_dispersion, favorites_avg,
			review_velocity, dominance, sample_size, collected_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(phrase) DO UPDATE SET
			price_median = excluded.price_median,
			price_dispersion = excluded.price_dispersion,
			favorites_avg = excluded.favorites_avg,
			review_velocity = excluded.review_velocity,
			dominance = excluded.dominance,
			sample_size = excluded.sample_size,
			collected_at = excluded.collected_at
	`, m.Phrase, nullable(m.PriceMedian), nullable(m.PriceDispersion),
		nullable(m.FavoritesAvg), nullable(m.ReviewVelocity),
		nullable(m.Dominance), m.SampleSize, formatTime(time.Now().UTC()))

	if err != nil {
		return fmt.Errorf("failed to upsert listing metrics for %q: %w", m.Phrase, err)
	}
	return nil
}

// UpsertTrendMetrics overwrites the trend metric row for a keyword.
func (s *SQLiteStore) UpsertTrendMetrics(m TrendMetrics) error {
	var seriesJSON []byte
	if m.Series != nil {
		var err error
		seriesJSON, err = json.Marshal(m.Series)
		if err != nil {
			return fmt.Errorf("failed to marshal trend series for %q: %w", m.Phrase, err)
		}
	}

	_, err := s.db.Exec(`
		INSERT INTO trend_metrics (phrase, trend_avg, series, collected_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(phrase) DO UPDATE SET
			trend_avg = excluded.trend_avg,
			series = excluded.series,
			collected_at = excluded.collected_at
	`, m.Phrase, nullable(m.TrendAvg), string(seriesJSON), formatTime(time.Now().UTC()))

	if err != nil {
		return fmt.Errorf("failed to upsert trend metrics for %q: %w", m.Phrase, err)
	}
	return nil
}

// AggregatedRows joins the three metric tables by phrase: every phrase
// present in any table appears once, with each field populated from
// whichever table has it and nil where absent everywhere.
func (s *SQLiteStore) AggregatedRows() ([]scoring.Row, error) {
	rows, err := s.db.Query(`
		SELECT phrase, results_count, ad_ratio, price_median,
		       price_dispersion, favorites_avg, review_velocity,
		       dominance, trend_avg
		FROM aggregated_metrics
		ORDER BY phrase
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query aggregated metrics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []scoring.Row
	for rows.Next() {
		var r scoring.Row
		var resultsCount, adRatio, priceMedian, priceDispersion sql.NullFloat64
		var favoritesAvg, reviewVelocity, dominance, trendAvg sql.NullFloat64

		if err := rows.Scan(&r.Phrase, &resultsCount, &adRatio, &priceMedian,
			&priceDispersion, &favoritesAvg, &reviewVelocity,
			&dominance, &trendAvg); err != nil {
			return nil, fmt.Errorf("failed to scan aggregated row: %w", err)
		}

		r.ResultsCount = fromNull(resultsCount)
		r.AdRatio = fromNull(adRatio)
		r.PriceMedian = fromNull(priceMedian)
		r.PriceDispersion = fromNull(priceDispersion)
		r.FavoritesAvg = fromNull(favoritesAvg)
		r.ReviewVelocity = fromNull(reviewVelocity)
		r.Dominance = fromNull(dominance)
		r.TrendAvg = fromNull(trendAvg)

		out = append(out, r)
	}

	return out, rows.Err()
}

// ReplaceSnapshots replaces all opportunity snapshots with the given
// run's results in a single transaction.
func (s *SQLiteStore) ReplaceSnapshots(runID string, snapshots []scoring.Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM snapshots"); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO snapshots (
			run_id, phrase, demand_score, competition_score,
			opportunity_score, components, computed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, snap := range snapshots {
		components, err := json.Marshal(snap.Components)
		if err != nil {
			return fmt.Errorf("failed to marshal components for %q: %w", snap.Phrase, err)
		}
		if _, err := stmt.Exec(runID, snap.Phrase, snap.Demand, snap.Competition,
			snap.Opportunity, string(components), formatTime(snap.ComputedAt)); err != nil {
			return fmt.Errorf("failed to insert snapshot for %q: %w", snap.Phrase, err)
		}
	}

	return tx.Commit()
}

// Counts returns row counts for the main tables, keyed by table name.
func (s *SQLiteStore) Counts() (map[string]int, error) {
	tables := []string{
		"keywords", "suggestions", "serp_metrics",
		"listing_metrics", "trend_metrics", "snapshots",
	}

	counts := make(map[string]int, len(tables))
	for _, table := range tables {
		var n int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}

	return counts, nil
}

// GetMeta retrieves a run metadata value; missing keys return "".
func (s *SQLiteStore) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM run_meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get meta: %w", err)
	}
	return value, nil
}

// SetMeta stores a run metadata value.
func (s *SQLiteStore) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO run_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set meta: %w", err)
	}
	return nil
}

func splitSources(concat string) []string {
	if concat == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(concat); i++ {
		if i == len(concat) || concat[i] == ',' {
			if i > start {
				out = append(out, concat[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// Timestamps are stored as RFC3339 text so reads do not depend on
// driver-specific time scanning.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
