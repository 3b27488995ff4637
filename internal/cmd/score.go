package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/keydoru/keydoru/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Rank discovered keywords by opportunity score",
	Long: `Joins the collected metric tables by keyword, robust-normalizes each
signal across the full population, composes demand and competition
scores, and replaces the opportunity snapshot table with the new
ranking.`,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().IntP("top", "n", 50, "Rows printed (0 = all)")
	scoreCmd.Flags().Float64("weight-review-velocity", 1.0, "Demand weight for review velocity")
	scoreCmd.Flags().Float64("weight-favorites", 0.5, "Demand weight for average favorites")
	scoreCmd.Flags().Float64("weight-ad-ratio", 0.8, "Competition weight for ad ratio")
	scoreCmd.Flags().Float64("weight-dominance", 0.6, "Competition weight for shop dominance")
	scoreCmd.Flags().Float64("weight-price-dispersion", 0.4, "Competition weight for price dispersion")

	bindFlags := []struct {
		viperKey string
		flagName string
	}{
		{"scoring.top_n", "top"},
		{"scoring.weight_review_velocity", "weight-review-velocity"},
		{"scoring.weight_favorites", "weight-favorites"},
		{"scoring.weight_ad_ratio", "weight-ad-ratio"},
		{"scoring.weight_dominance", "weight-dominance"},
		{"scoring.weight_price_dispersion", "weight-price-dispersion"},
	}
	for _, bind := range bindFlags {
		if err := viper.BindPFlag(bind.viperKey, scoreCmd.Flags().Lookup(bind.flagName)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rows, err := store.AggregatedRows()
	if err != nil {
		return fmt.Errorf("failed to read aggregated metrics: %w", err)
	}

	weights := scoring.Weights{
		ReviewVelocity:  cfg.Scoring.WeightReviewVelocity,
		Favorites:       cfg.Scoring.WeightFavorites,
		AdRatio:         cfg.Scoring.WeightAdRatio,
		Dominance:       cfg.Scoring.WeightDominance,
		PriceDispersion: cfg.Scoring.WeightPriceDispersion,
	}

	snapshots := scoring.Score(rows, weights)
	if len(snapshots) == 0 {
		fmt.Println("No aggregated metric rows found; run discover and import metrics first.")
		return nil
	}

	runID := uuid.NewString()
	if err := store.ReplaceSnapshots(runID, snapshots); err != nil {
		return fmt.Errorf("failed to replace snapshots: %w", err)
	}
	_ = store.SetMeta("last_score_run", runID)

	printSnapshots(snapshots, cfg.Scoring.TopN)
	return nil
}

func printSnapshots(snapshots []scoring.Snapshot, topN int) {
	if topN > 0 && len(snapshots) > topN {
		snapshots = snapshots[:topN]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tKEYWORD\tOPPORTUNITY\tDEMAND\tCOMPETITION")
	for i, snap := range snapshots {
		fmt.Fprintf(w, "%d\t%s\t%.4f\t%.4f\t%.4f\n",
			i+1, snap.Phrase, snap.Opportunity, snap.Demand, snap.Competition)
	}
	_ = w.Flush()
}
