package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keydoru/keydoru/internal/storage"
	"github.com/keydoru/keydoru/internal/trends"
)

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Exchange data with the trend-series collaborator",
}

var trendsRequestCmd = &cobra.Command{
	Use:   "request",
	Short: "Print the trend request payload for all discovered keywords",
	RunE:  runTrendsRequest,
}

var trendsIngestCmd = &cobra.Command{
	Use:   "ingest FILE",
	Short: "Ingest a trend result document into the metric store",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrendsIngest,
}

func init() {
	trendsRequestCmd.Flags().Int("lookback-months", 12, "Trend lookback window in months")
	trendsRequestCmd.Flags().String("geo", "", "Geo restriction for the trend query")
	trendsRequestCmd.Flags().Int("batch-size", 5, "Keywords per trend batch")

	trendsCmd.AddCommand(trendsRequestCmd)
	trendsCmd.AddCommand(trendsIngestCmd)
	rootCmd.AddCommand(trendsCmd)
}

func runTrendsRequest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.ListKeywords()
	if err != nil {
		return fmt.Errorf("failed to list keywords: %w", err)
	}

	keywords := make([]string, 0, len(records))
	for _, rec := range records {
		keywords = append(keywords, rec.Phrase)
	}

	req := trends.DefaultRequest(keywords)
	if v, _ := cmd.Flags().GetInt("lookback-months"); v > 0 {
		req.LookbackMonths = v
	}
	if v, _ := cmd.Flags().GetString("geo"); v != "" {
		req.Geo = v
	}
	if v, _ := cmd.Flags().GetInt("batch-size"); v > 0 {
		req.BatchSize = v
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(req)
}

func runTrendsIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open trend results: %w", err)
	}
	defer func() { _ = file.Close() }()

	set, err := trends.ParseResults(file)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ingested := 0
	for _, result := range set.Results {
		if result.Keyword == "" {
			continue
		}
		err := store.UpsertTrendMetrics(storage.TrendMetrics{
			Phrase:   result.Keyword,
			TrendAvg: result.Interest,
			Series:   result.Series,
		})
		if err != nil {
			return err
		}
		ingested++
	}

	fmt.Printf("Ingested trend metrics for %d keywords\n", ingested)
	return nil
}
