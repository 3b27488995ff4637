package storage

const schemaSQL = `
-- Discovered keywords, one row per (phrase, source) edge.
-- Rediscovery refreshes last_seen; rows are never deleted.
CREATE TABLE IF NOT EXISTS keywords (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    phrase TEXT NOT NULL,
    source TEXT NOT NULL,
    first_seen DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    last_seen DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(phrase, source)
);

CREATE INDEX IF NOT EXISTS idx_keywords_phrase ON keywords(phrase);

-- Raw suggestion observations, one row per (phrase, source, prefix).
-- Re-fetching the same prefix updates rank/payload/fetched_at only.
CREATE TABLE IF NOT EXISTS suggestions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    phrase TEXT NOT NULL,
    source TEXT NOT NULL,
    prefix TEXT NOT NULL,
    rank INTEGER NOT NULL DEFAULT 0,
    payload TEXT,
    fetched_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(phrase, source, prefix)
);

CREATE INDEX IF NOT EXISTS idx_suggestions_prefix ON suggestions(prefix);

-- Search-result metadata per keyword. NULL means the signal is absent,
-- which is distinct from zero.
CREATE TABLE IF NOT EXISTS serp_metrics (
    phrase TEXT PRIMARY KEY NOT NULL,
    results_count REAL,
    ad_ratio REAL,
    collected_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Sampled-listing metrics per keyword.
CREATE TABLE IF NOT EXISTS listing_metrics (
    phrase TEXT PRIMARY KEY NOT NULL,
    price_median REAL,
    price_dispersion REAL,
    favorites_avg REAL,
    review_velocity REAL,
    dominance REAL,
    sample_size INTEGER NOT NULL DEFAULT 0,
    collected_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Trend interest per keyword; series is the raw interest values as JSON.
CREATE TABLE IF NOT EXISTS trend_metrics (
    phrase TEXT PRIMARY KEY NOT NULL,
    trend_avg REAL,
    series TEXT,
    collected_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Opportunity snapshots, recomputed wholesale each scoring run.
CREATE TABLE IF NOT EXISTS snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    phrase TEXT NOT NULL,
    demand_score REAL NOT NULL,
    competition_score REAL NOT NULL,
    opportunity_score REAL NOT NULL,
    components TEXT,
    computed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_opportunity ON snapshots(opportunity_score DESC);

-- Run metadata as key-value pairs.
CREATE TABLE IF NOT EXISTS run_meta (
    key TEXT PRIMARY KEY NOT NULL,
    value TEXT NOT NULL
);

-- Phrase-keyed aggregation view: one row per phrase appearing in any
-- metric table, each field taken from whichever table has it.
CREATE VIEW IF NOT EXISTS aggregated_metrics AS
SELECT
    p.phrase,
    s.results_count,
    s.ad_ratio,
    l.price_median,
    l.price_dispersion,
    l.favorites_avg,
    l.review_velocity,
    l.dominance,
    t.trend_avg
FROM (
    SELECT phrase FROM serp_metrics
    UNION
    SELECT phrase FROM listing_metrics
    UNION
    SELECT phrase FROM trend_metrics
) p
LEFT JOIN serp_metrics s ON s.phrase = p.phrase
LEFT JOIN listing_metrics l ON l.phrase = p.phrase
LEFT JOIN trend_metrics t ON t.phrase = p.phrase;
`
