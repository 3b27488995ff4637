package scoring

import (
	"log/slog"
	"math"
	"sort"
	"time"
)

// Row is one aggregated metric row per keyword, joined from the
// independently populated metric tables. Nil fields mean the signal was
// absent everywhere; absence is distinct from zero and is resolved only
// during normalization.
type Row struct {
	Phrase          string
	ResultsCount    *float64 // SERP result count
	AdRatio         *float64 // Fraction of sampled slots that are ads
	Dominance       *float64 // HHI over sampled shop identities
	PriceMedian     *float64
	PriceDispersion *float64 // IQR / median of sampled prices
	FavoritesAvg    *float64
	ReviewVelocity  *float64
	TrendAvg        *float64 // Mean of the trend interest series
}

// Weights are the five scalar multipliers applied to the normalized
// signal components. The trend and results-count components always
// carry weight 1.
type Weights struct {
	ReviewVelocity  float64
	Favorites       float64
	AdRatio         float64
	Dominance       float64
	PriceDispersion float64
}

// Snapshot is the scored result for one keyword in one run.
type Snapshot struct {
	Phrase      string
	Demand      float64
	Competition float64
	Opportunity float64
	Components  map[string]float64 // Weighted normalized value per signal
	ComputedAt  time.Time
}

// Score robust-normalizes every signal across the full keyword
// population, composes demand and competition scores per row, and
// returns all rows sorted descending by opportunity score. Ties keep
// the input order. An empty input yields an empty, non-error result.
func Score(rows []Row, w Weights) []Snapshot {
	if len(rows) == 0 {
		slog.Warn("No aggregated metric rows to score")
		return []Snapshot{}
	}

	// Population series per signal, absent entries ignored.
	// Results counts are log1p-compressed before normalization.
	logResults := collect(rows, func(r Row) *float64 {
		if r.ResultsCount == nil {
			return nil
		}
		v := math.Log1p(*r.ResultsCount)
		return &v
	})
	adRatios := collect(rows, func(r Row) *float64 { return r.AdRatio })
	dominances := collect(rows, func(r Row) *float64 { return r.Dominance })
	dispersions := collect(rows, func(r Row) *float64 { return r.PriceDispersion })
	favorites := collect(rows, func(r Row) *float64 { return r.FavoritesAvg })
	velocities := collect(rows, func(r Row) *float64 { return r.ReviewVelocity })
	trends := collect(rows, func(r Row) *float64 { return r.TrendAvg })

	now := time.Now().UTC()
	snapshots := make([]Snapshot, 0, len(rows))

	for _, r := range rows {
		trend := normalizeOpt(r.TrendAvg, trends, identity)
		velocity := w.ReviewVelocity * normalizeOpt(r.ReviewVelocity, velocities, identity)
		favorite := w.Favorites * normalizeOpt(r.FavoritesAvg, favorites, identity)

		results := normalizeOpt(r.ResultsCount, logResults, math.Log1p)
		ads := w.AdRatio * normalizeOpt(r.AdRatio, adRatios, identity)
		dominance := w.Dominance * normalizeOpt(r.Dominance, dominances, identity)
		dispersion := w.PriceDispersion * normalizeOpt(r.PriceDispersion, dispersions, identity)

		demand := trend + velocity + favorite
		competition := results + ads + dominance + dispersion

		// The max(0, ...) guard keeps below-median competition from
		// shrinking the denominator under 1.
		opportunity := demand / (1 + math.Max(0, competition))

		snapshots = append(snapshots, Snapshot{
			Phrase:      r.Phrase,
			Demand:      demand,
			Competition: competition,
			Opportunity: opportunity,
			Components: map[string]float64{
				"trend":            trend,
				"review_velocity":  velocity,
				"favorites":        favorite,
				"results":          results,
				"ad_ratio":         ads,
				"dominance":        dominance,
				"price_dispersion": dispersion,
			},
			ComputedAt: now,
		})
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].Opportunity > snapshots[j].Opportunity
	})

	return snapshots
}

// collect builds the population series for one signal, skipping rows
// where the signal is absent.
func collect(rows []Row, get func(Row) *float64) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if v := get(r); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// normalizeOpt normalizes an optional signal value against its
// population, applying transform first. Absent values normalize to 0.
func normalizeOpt(v *float64, population []float64, transform func(float64) float64) float64 {
	if v == nil {
		return 0
	}
	return Normalize(transform(*v), population)
}

func identity(v float64) float64 { return v }
