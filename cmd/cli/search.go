package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/farewatch/fare-service/internal/aggregate"
	"github.com/farewatch/fare-service/internal/database"
	"github.com/farewatch/fare-service/internal/export"
	"github.com/farewatch/fare-service/internal/http/ratelimit"
	"github.com/farewatch/fare-service/internal/pipeline"
	"github.com/farewatch/fare-service/internal/telemetry"
)

// runFlags are shared by commands that render pages
type runFlags struct {
	persist bool
	output  string
	outFile string
	rps     float64
	retries int
	noCache bool
}

func (f *runFlags) register(fs *pflag.FlagSet) {
	fs.BoolVar(&f.persist, "persist", false, "Store the run and its offers in the database")
	fs.StringVar(&f.output, "output", "table", "Output format: table, json or xlsx")
	fs.StringVar(&f.outFile, "out", "", "Write output to a file instead of stdout (required for xlsx)")
	fs.Float64Var(&f.rps, "rps", 0, "Override render requests per second")
	fs.IntVar(&f.retries, "retries", 0, "Override max render retries")
	fs.BoolVar(&f.noCache, "no-cache", false, "Ignore the page cache")
}

func (f *runFlags) overrides(fs *pflag.FlagSet) ratelimit.PartialConfig {
	var p ratelimit.PartialConfig
	if fs.Changed("rps") {
		p.RequestsPerSecond = &f.rps
	}
	if fs.Changed("retries") {
		p.MaxRetries = &f.retries
	}
	return p
}

var (
	searchID     string
	searchEntity string
	searchFlags  runFlags
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <topology> <args...>",
	Short: "Render, parse and merge every segment of one query",
	Long: `Render the results page of every segment of a query through the configured
render endpoint, parse the visible text into flight records and merge them into
one offer set. Segments are fetched one at a time; a segment that fails after
its retries is reported and skipped.`,
	Example: `  fare-service search one-way JFK LAX 2024-06-01
  fare-service search chain-trip JFK LAX 2024-06-01 LAX SFO 2024-06-05 --entity "West coast"
  fare-service search round-trip JFK LHR 2024-06-01 2024-06-10 --output xlsx --out fares.xlsx --persist`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchID, "id", "q1", "Query ID stamped on every offer")
	searchCmd.Flags().StringVar(&searchEntity, "entity", "", "Entity label stamped on every offer")
	searchFlags.register(searchCmd.Flags())
}

func runSearch(cmd *cobra.Command, args []string) error {
	q, err := buildQuery(args)
	if err != nil {
		return err
	}
	jobs := []pipeline.Job{{ID: searchID, Entity: searchEntity, Query: q}}

	report, err := runJobs(cmd, jobs, &searchFlags)
	if err != nil {
		return err
	}
	return writeReport(report, &searchFlags)
}

// runJobs wires a runner from config and runs the jobs until done or interrupted
func runJobs(cmd *cobra.Command, jobs []pipeline.Job, flags *runFlags) (*pipeline.Report, error) {
	if err := requireConfig(cmd); err != nil {
		return nil, err
	}
	if strings.ToLower(flags.output) == "xlsx" && flags.outFile == "" {
		return nil, fmt.Errorf("--out is required for xlsx output")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to init telemetry: %w", err)
	}
	defer shutdown(context.Background())

	var store pipeline.Store
	if flags.persist {
		if err := initDatabase(ctx); err != nil {
			return nil, fmt.Errorf("database initialization failed: %w", err)
		}
		defer database.Close()
		store = database.PoolStore{}
	}

	opts, err := pipeline.OptionsFromConfig(cfg, store, logger)
	if err != nil {
		return nil, err
	}
	opts.Retry = opts.Retry.WithOverrides(flags.overrides(cmd.Flags()))
	if flags.noCache {
		opts.Cache = nil
	}

	runner, err := pipeline.NewRunner(opts)
	if err != nil {
		return nil, err
	}

	report, err := runner.Run(ctx, jobs)
	if err != nil {
		return nil, err
	}
	if n := len(report.Segments); n > 0 && report.Failed() == n {
		return report, fmt.Errorf("all %d segments failed to render", n)
	}
	return report, nil
}

// writeReport prints or saves a run's offers with a price table and best dates
func writeReport(report *pipeline.Report, flags *runFlags) error {
	placeholders := aggregatePlaceholders()
	table, err := aggregate.PriceTable(report.Offers, aggregate.TableOptions{Placeholders: placeholders})
	if err != nil {
		return err
	}
	best, err := aggregate.BestDates(report.Offers, aggregate.BestDateOptions{Placeholders: placeholders})
	if err != nil {
		return err
	}

	out := os.Stdout
	if flags.outFile != "" {
		f, err := os.Create(flags.outFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch strings.ToLower(flags.output) {
	case "json":
		return export.WriteJSON(out, report)
	case "xlsx":
		if err := export.WriteXLSX(out, export.Workbook{Offers: report.Offers, Prices: table, BestDates: best}); err != nil {
			return err
		}
		logger.Info().Str("file", flags.outFile).Msg("Workbook written")
		return nil
	case "table":
		export.OffersTable(out, report.Offers)
		export.PriceTable(out, table)
		export.BestDatesTable(out, best)
		for _, seg := range report.Segments {
			if seg.Status == pipeline.StatusFailed {
				fmt.Fprintf(out, "failed %s: %s\n", seg.Segment, seg.Error)
			}
		}
		fmt.Fprintf(out, "run %s: %d offers (%d filtered), %d segments (%d failed), %d groups skipped\n",
			report.RunID, len(report.Offers), report.Filtered, len(report.Segments), report.Failed(), report.Skipped())
		return nil
	default:
		return fmt.Errorf("invalid output format: %s (use 'table', 'json' or 'xlsx')", flags.output)
	}
}

func aggregatePlaceholders() []string {
	if cfg == nil {
		return nil
	}
	return cfg.Aggregate.Placeholders
}
