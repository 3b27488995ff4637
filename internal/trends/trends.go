// Package trends defines the contract with the external trend-series
// collaborator: the request payload it consumes, the result rows it
// produces, and ingestion of those results into the metric store.
package trends

import (
	"encoding/json"
	"fmt"
	"io"
)

// Request is the payload handed to the trend collaborator.
type Request struct {
	Keywords              []string `json:"keywords"`
	LookbackMonths        int      `json:"lookbackMonths"`
	Geo                   string   `json:"geo,omitempty"`
	BatchSize             int      `json:"batchSize"`
	SleepBetweenBatchesMs int      `json:"sleepBetweenBatchesMs"`
	TZ                    int      `json:"tz"`
	Proxy                 string   `json:"proxy,omitempty"`
}

// DefaultRequest returns a request with the collaborator's defaults.
func DefaultRequest(keywords []string) Request {
	return Request{
		Keywords:              keywords,
		LookbackMonths:        12,
		BatchSize:             5,
		SleepBetweenBatchesMs: 1000,
		TZ:                    360,
	}
}

// Timeframe returns the trend query window for the configured
// lookback: "today N-m" up to 36 months, "today 5-y" beyond.
func (r Request) Timeframe() string {
	if r.LookbackMonths <= 36 {
		return fmt.Sprintf("today %d-m", r.LookbackMonths)
	}
	return "today 5-y"
}

// Chunk splits keywords into batches of at most size. A non-positive
// size is treated as 1.
func Chunk(keywords []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	var batches [][]string
	for start := 0; start < len(keywords); start += size {
		end := start + size
		if end > len(keywords) {
			end = len(keywords)
		}
		batches = append(batches, keywords[start:end])
	}
	return batches
}

// Result is one keyword's trend outcome. Interest is nil when the
// collaborator found no usable series for the keyword.
type Result struct {
	Keyword  string    `json:"keyword"`
	Interest *float64  `json:"interest"`
	Series   []float64 `json:"series"`
}

// ResultSet is the collaborator's full output document.
type ResultSet struct {
	Results []Result `json:"results"`
}

// ParseResults decodes a collaborator result document.
func ParseResults(r io.Reader) (*ResultSet, error) {
	var set ResultSet
	if err := json.NewDecoder(r).Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode trend results: %w", err)
	}
	return &set, nil
}
