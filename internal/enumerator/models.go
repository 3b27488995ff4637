package enumerator

import "time"

// Source tags attached to persisted suggestions.
const (
	SourceMarketplace = "marketplace"
	SourceGeneral     = "general"
)

// Suggestion is one (phrase, source, prefix) observation returned by a
// suggestion source. Phrase is raw as returned upstream; the frontier
// normalizes it before persistence.
type Suggestion struct {
	Phrase  string    // Suggested phrase
	Source  string    // Source tag that produced it
	Prefix  string    // Prefix that was queried
	Rank    int       // Position within the source response
	Payload string    // Opaque provenance (resolved endpoint URL)
	SeenAt  time.Time // Observation timestamp (UTC)
}

// RunStats summarizes one frontier run.
type RunStats struct {
	PrefixesProcessed    int            // Prefixes dequeued and fetched
	UniqueKeywords       int            // Distinct phrases accepted toward the budget
	SuggestionsPersisted int            // (phrase, source, prefix) tuples written
	PerSource            map[string]int // Persisted tuple count per source tag
	BudgetExhausted      bool           // True when the run stopped on budget
	StartTime            time.Time
	Duration             time.Duration
}
