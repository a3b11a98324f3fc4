package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/farewatch/fare-service/internal/aggregate"
	"github.com/farewatch/fare-service/internal/database"
	"github.com/farewatch/fare-service/internal/export"
	"github.com/farewatch/fare-service/internal/merge"
	"github.com/farewatch/fare-service/internal/pipeline"
)

var (
	aggRunID   string
	aggKey     string
	aggReducer string
	aggBy      string
	aggTop     int
	aggInclude []string
	aggOutput  string
	aggOutFile string
)

// aggregateCmd represents the aggregate command
var aggregateCmd = &cobra.Command{
	Use:   "aggregate [offers.json|-]",
	Short: "Build a price table and best-date ranking from stored offers",
	Long: `Aggregate offers into a key-by-date price table and a ranking of the cheapest
dates. Offers come from a JSON file (a list of offers, or a search report as
written by 'search --output json'), stdin, or a stored run (--run).
Placeholder rows such as chart labels are filtered out first.`,
	Example: `  fare-service aggregate report.json
  fare-service aggregate report.json --key airline --reducer all --by median --top 5
  fare-service aggregate --run 6f1c... --output xlsx --out fares.xlsx`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAggregate,
}

func init() {
	rootCmd.AddCommand(aggregateCmd)

	aggregateCmd.Flags().StringVar(&aggRunID, "run", "", "Load offers of a stored run")
	aggregateCmd.Flags().StringVar(&aggKey, "key", "entity", "Row key: entity, origin, destination or airline")
	aggregateCmd.Flags().StringVar(&aggReducer, "reducer", "min", "Cell reducer: min or all")
	aggregateCmd.Flags().StringVar(&aggBy, "by", "mean", "Best-date statistic: mean, median or min")
	aggregateCmd.Flags().IntVar(&aggTop, "top", 0, "Keep only the N best dates (0 keeps all)")
	aggregateCmd.Flags().StringSliceVar(&aggInclude, "include", nil, "Keys to show even without offers")
	aggregateCmd.Flags().StringVar(&aggOutput, "output", "table", "Output format: table, json or xlsx")
	aggregateCmd.Flags().StringVar(&aggOutFile, "out", "", "Write output to a file instead of stdout (required for xlsx)")
}

// readOffers accepts a bare offer list or a pipeline report
func readOffers(r io.Reader) ([]merge.Offer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read offers: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var offers []merge.Offer
		if err := json.Unmarshal(data, &offers); err != nil {
			return nil, fmt.Errorf("failed to decode offers: %w", err)
		}
		return offers, nil
	}

	var report pipeline.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return report.Offers, nil
}

func loadAggregateOffers(cmd *cobra.Command, args []string) ([]merge.Offer, error) {
	if aggRunID != "" {
		if err := requireConfig(cmd); err != nil {
			return nil, err
		}
		ctx := context.Background()
		if err := initDatabase(ctx); err != nil {
			return nil, fmt.Errorf("database initialization failed: %w", err)
		}
		defer database.Close()
		return database.ListOffers(ctx, aggRunID)
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("need an offers file, '-' for stdin, or --run")
	}
	if args[0] == "-" {
		return readOffers(os.Stdin)
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to open offers: %w", err)
	}
	defer f.Close()
	return readOffers(f)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	key, err := aggregate.ParseKey(aggKey)
	if err != nil {
		return err
	}
	reducer, err := aggregate.ParseReducer(aggReducer)
	if err != nil {
		return err
	}
	by, err := aggregate.ParseStatistic(aggBy)
	if err != nil {
		return err
	}

	offers, err := loadAggregateOffers(cmd, args)
	if err != nil {
		return err
	}

	placeholders := aggregatePlaceholders()
	table, err := aggregate.PriceTable(offers, aggregate.TableOptions{
		Key:          key,
		Reducer:      reducer,
		IncludeKeys:  aggInclude,
		Placeholders: placeholders,
	})
	if err != nil {
		return err
	}
	best, err := aggregate.BestDates(offers, aggregate.BestDateOptions{
		By:           by,
		Top:          aggTop,
		Key:          key,
		Placeholders: placeholders,
	})
	if err != nil {
		return err
	}

	if table.InputEmpty {
		logger.Warn().Int("offers", len(offers)).Msg("No priced offers left after filtering")
	}

	out := io.Writer(os.Stdout)
	if aggOutFile != "" {
		f, err := os.Create(aggOutFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch strings.ToLower(aggOutput) {
	case "json":
		return export.WriteJSON(out, struct {
			Prices    *aggregate.Table     `json:"prices"`
			BestDates []aggregate.BestDate `json:"bestDates"`
		}{table, best})
	case "xlsx":
		if aggOutFile == "" {
			return fmt.Errorf("--out is required for xlsx output")
		}
		return export.WriteXLSX(out, export.Workbook{Prices: table, BestDates: best})
	case "table":
		export.PriceTable(out, table)
		export.BestDatesTable(out, best)
		return nil
	default:
		return fmt.Errorf("invalid output format: %s (use 'table', 'json' or 'xlsx')", aggOutput)
	}
}
