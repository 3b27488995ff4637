package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keydoru/keydoru/internal/scoring"
	"github.com/keydoru/keydoru/internal/storage"
)

// serpRecord is one collaborator-produced search-result metadata entry.
type serpRecord struct {
	Keyword      string   `json:"keyword"`
	ResultsCount *float64 `json:"resultsCount"`
	AdRatio      *float64 `json:"adRatio"`
}

// listingRecord is one collaborator-produced sampled-listing entry.
// Prices and Shops are raw samples; derived metrics are computed here
// when the collaborator did not provide them directly.
type listingRecord struct {
	Keyword         string    `json:"keyword"`
	Prices          []float64 `json:"prices,omitempty"`
	Shops           []string  `json:"shops,omitempty"`
	PriceMedian     *float64  `json:"priceMedian"`
	PriceDispersion *float64  `json:"priceDispersion"`
	FavoritesAvg    *float64  `json:"favoritesAvg"`
	ReviewVelocity  *float64  `json:"reviewVelocity"`
	Dominance       *float64  `json:"dominance"`
}

// metricsDocument is the collaborator metric file format.
type metricsDocument struct {
	SERP     []serpRecord    `json:"serp"`
	Listings []listingRecord `json:"listings"`
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import collaborator-produced SERP and listing metrics",
	Long: `Reads a JSON document of per-keyword metric rows produced by the
fetch and sampling collaborators and upserts them into the metric
tables. Derived listing metrics (price median, dispersion, shop
dominance) are computed from raw samples when absent.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read metrics file: %w", err)
	}

	var doc metricsDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to decode metrics file: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	serpCount := 0
	for _, rec := range doc.SERP {
		if rec.Keyword == "" {
			continue
		}
		err := store.UpsertSERPMetrics(storage.SERPMetrics{
			Phrase:       rec.Keyword,
			ResultsCount: rec.ResultsCount,
			AdRatio:      rec.AdRatio,
		})
		if err != nil {
			return err
		}
		serpCount++
	}

	listingCount := 0
	for _, rec := range doc.Listings {
		if rec.Keyword == "" {
			continue
		}
		if err := store.UpsertListingMetrics(toListingMetrics(rec)); err != nil {
			return err
		}
		listingCount++
	}

	fmt.Printf("Imported %d SERP rows and %d listing rows\n", serpCount, listingCount)
	return nil
}

// toListingMetrics derives missing listing metrics from raw samples.
func toListingMetrics(rec listingRecord) storage.ListingMetrics {
	m := storage.ListingMetrics{
		Phrase:          rec.Keyword,
		PriceMedian:     rec.PriceMedian,
		PriceDispersion: rec.PriceDispersion,
		FavoritesAvg:    rec.FavoritesAvg,
		ReviewVelocity:  rec.ReviewVelocity,
		Dominance:       rec.Dominance,
		SampleSize:      len(rec.Shops),
	}

	if len(rec.Prices) > 0 {
		if m.PriceMedian == nil {
			median := scoring.Median(rec.Prices)
			m.PriceMedian = &median
		}
		if m.PriceDispersion == nil {
			dispersion := scoring.SafeDiv(scoring.IQR(rec.Prices), scoring.Median(rec.Prices))
			m.PriceDispersion = &dispersion
		}
	}

	if m.Dominance == nil && len(rec.Shops) > 0 {
		if hhi, ok := scoring.DominanceIndex(rec.Shops); ok {
			m.Dominance = &hhi
		}
	}

	return m
}
