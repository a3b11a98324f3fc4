package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/farewatch/fare-service/internal/pipeline"
	"github.com/farewatch/fare-service/internal/query"
)

var (
	batchRoutes      []string
	batchCounterpart string
	batchDirection   string
	batchDates       []string
	batchFlags       runFlags
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Search many routes against one counterpart airport over a set of dates",
	Long: `Build one query per route entity covering every requested date, run them all
through the pipeline and merge the offers. Outbound batches fly from each route
airport to the counterpart; inbound batches fly the other way.`,
	Example: `  fare-service batch --route Boston=BOS --route "New York=JFK" --counterpart MIA --date 2024-06-01 --date 2024-06-02
  fare-service batch --route BOS --counterpart MIA --direction inbound --date 2024-06-01 --output json`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringArrayVar(&batchRoutes, "route", nil, "Route as Entity=AIR or AIR (repeatable, required)")
	batchCmd.Flags().StringVar(&batchCounterpart, "counterpart", "", "Counterpart airport code (required)")
	batchCmd.Flags().StringVar(&batchDirection, "direction", string(query.Outbound), "Direction: outbound or inbound")
	batchCmd.Flags().StringSliceVar(&batchDates, "date", nil, "Search date, YYYY-MM-DD (repeatable, required)")
	batchFlags.register(batchCmd.Flags())
	batchCmd.MarkFlagRequired("route")
	batchCmd.MarkFlagRequired("counterpart")
	batchCmd.MarkFlagRequired("date")
}

func batchJobs() ([]pipeline.Job, error) {
	routes := make([]query.Route, 0, len(batchRoutes))
	for _, r := range batchRoutes {
		route, err := query.ParseRoute(r)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}

	dates, err := query.ParseDates(batchDates)
	if err != nil {
		return nil, err
	}

	direction := query.Direction(batchDirection)
	if direction != query.Outbound && direction != query.Inbound {
		return nil, fmt.Errorf("invalid direction: %s (use 'outbound' or 'inbound')", batchDirection)
	}

	batch, err := query.Batch(query.BatchSpec{
		Routes:      routes,
		Counterpart: batchCounterpart,
		Direction:   direction,
		Dates:       dates,
	})
	if err != nil {
		return nil, err
	}

	jobs := make([]pipeline.Job, 0, len(batch))
	for _, bq := range batch {
		jobs = append(jobs, pipeline.Job{ID: bq.Entity, Entity: bq.Entity, Query: bq.Query})
	}
	return jobs, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	jobs, err := batchJobs()
	if err != nil {
		return err
	}
	logger.Info().Int("queries", len(jobs)).Int("dates", len(batchDates)).Msg("Starting batch")

	report, err := runJobs(cmd, jobs, &batchFlags)
	if err != nil {
		return err
	}
	return writeReport(report, &batchFlags)
}
