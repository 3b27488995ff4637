package scoring

import (
	"math"
	"testing"
)

func fp(v float64) *float64 { return &v }

func defaultWeights() Weights {
	return Weights{
		ReviewVelocity:  1,
		Favorites:       1,
		AdRatio:         1,
		Dominance:       1,
		PriceDispersion: 1,
	}
}

func TestScoreEmptyInput(t *testing.T) {
	got := Score(nil, defaultWeights())
	if got == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(got) != 0 {
		t.Fatalf("expected no snapshots, got %d", len(got))
	}
}

func TestScoreOrderingAndComposition(t *testing.T) {
	rows := []Row{
		{Phrase: "a", TrendAvg: fp(10)},
		{Phrase: "b", TrendAvg: fp(50)},
		{Phrase: "c", TrendAvg: fp(100), ResultsCount: fp(1000)},
		{Phrase: "d", ResultsCount: fp(500)},
	}

	snaps := Score(rows, defaultWeights())
	if len(snaps) != 4 {
		t.Fatalf("expected 4 snapshots, got %d", len(snaps))
	}

	// Highest trend with moderate competition wins; the two zero-demand
	// rows tie and keep their input order; the below-median trend loses.
	wantOrder := []string{"c", "b", "d", "a"}
	for i, phrase := range wantOrder {
		if snaps[i].Phrase != phrase {
			t.Fatalf("rank %d = %q, want %q (full order %v)", i, snaps[i].Phrase, phrase, phrases(snaps))
		}
	}

	byPhrase := make(map[string]Snapshot, len(snaps))
	for _, s := range snaps {
		byPhrase[s.Phrase] = s
	}

	// Trend population [10,50,100]: median 50, IQR 45.
	if got := byPhrase["c"].Demand; !almostEqual(got, 50.0/45.0) {
		t.Errorf("demand(c) = %v, want %v", got, 50.0/45.0)
	}
	if got := byPhrase["a"].Demand; !almostEqual(got, -40.0/45.0) {
		t.Errorf("demand(a) = %v, want %v", got, -40.0/45.0)
	}

	// Two-value log1p results population: c is +1 spread, d is -1.
	if got := byPhrase["c"].Competition; !almostEqual(got, 1) {
		t.Errorf("competition(c) = %v, want 1", got)
	}
	if got := byPhrase["d"].Competition; !almostEqual(got, -1) {
		t.Errorf("competition(d) = %v, want -1", got)
	}

	// Opportunity = demand / (1 + max(0, competition)).
	if got := byPhrase["c"].Opportunity; !almostEqual(got, (50.0/45.0)/2) {
		t.Errorf("opportunity(c) = %v, want %v", got, (50.0/45.0)/2)
	}
	if got := byPhrase["d"].Opportunity; got != 0 {
		t.Errorf("opportunity(d) = %v, want 0 (negative competition must not inflate)", got)
	}
}

func TestScoreAbsentSignalsContributeZero(t *testing.T) {
	rows := []Row{
		{Phrase: "only-trend", TrendAvg: fp(5)},
		{Phrase: "nothing"},
	}

	snaps := Score(rows, defaultWeights())
	for _, s := range snaps {
		if s.Phrase != "nothing" {
			continue
		}
		if s.Demand != 0 || s.Competition != 0 || s.Opportunity != 0 {
			t.Errorf("fully absent row scored %+v, want all zeros", s)
		}
		for name, v := range s.Components {
			if v != 0 {
				t.Errorf("component %s = %v for absent row, want 0", name, v)
			}
		}
	}
}

func TestScoreWeightsScaleComponents(t *testing.T) {
	rows := []Row{
		{Phrase: "x", AdRatio: fp(0.9)},
		{Phrase: "y", AdRatio: fp(0.1)},
	}

	w := defaultWeights()
	w.AdRatio = 2

	snaps := Score(rows, w)
	byPhrase := map[string]Snapshot{}
	for _, s := range snaps {
		byPhrase[s.Phrase] = s
	}

	// Two-value population normalizes to +-1 before weighting.
	if got := byPhrase["x"].Components["ad_ratio"]; !almostEqual(got, 2) {
		t.Errorf("weighted ad_ratio(x) = %v, want 2", got)
	}
	if got := byPhrase["y"].Components["ad_ratio"]; !almostEqual(got, -2) {
		t.Errorf("weighted ad_ratio(y) = %v, want -2", got)
	}
}

func TestScoreComponentsSumToScores(t *testing.T) {
	rows := []Row{
		{Phrase: "p", TrendAvg: fp(3), ReviewVelocity: fp(1), FavoritesAvg: fp(10),
			ResultsCount: fp(100), AdRatio: fp(0.5), Dominance: fp(0.3), PriceDispersion: fp(0.2)},
		{Phrase: "q", TrendAvg: fp(9), ReviewVelocity: fp(4), FavoritesAvg: fp(40),
			ResultsCount: fp(900), AdRatio: fp(0.1), Dominance: fp(0.6), PriceDispersion: fp(0.8)},
		{Phrase: "r", TrendAvg: fp(6), ReviewVelocity: fp(2), FavoritesAvg: fp(25),
			ResultsCount: fp(400), AdRatio: fp(0.3), Dominance: fp(0.4), PriceDispersion: fp(0.5)},
	}

	for _, s := range Score(rows, defaultWeights()) {
		demand := s.Components["trend"] + s.Components["review_velocity"] + s.Components["favorites"]
		competition := s.Components["results"] + s.Components["ad_ratio"] +
			s.Components["dominance"] + s.Components["price_dispersion"]

		if !almostEqual(demand, s.Demand) {
			t.Errorf("%s: component demand %v != %v", s.Phrase, demand, s.Demand)
		}
		if !almostEqual(competition, s.Competition) {
			t.Errorf("%s: component competition %v != %v", s.Phrase, competition, s.Competition)
		}
		if !almostEqual(s.Opportunity, s.Demand/(1+math.Max(0, s.Competition))) {
			t.Errorf("%s: opportunity %v inconsistent with demand/competition", s.Phrase, s.Opportunity)
		}
	}
}

func phrases(snaps []Snapshot) []string {
	out := make([]string, len(snaps))
	for i, s := range snaps {
		out[i] = s.Phrase
	}
	return out
}
