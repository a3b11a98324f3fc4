package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/farewatch/fare-service/internal/export"
	"github.com/farewatch/fare-service/internal/pipeline"
	"github.com/farewatch/fare-service/internal/query"
)

var urlOutput string

// urlCmd represents the url command
var urlCmd = &cobra.Command{
	Use:   "url <topology> <args...>",
	Short: "Validate a query and print its segment URLs",
	Long: `Validate a query against its topology rules and print one results-page URL
per segment. Nothing is fetched.

Topologies:
  one-way        ORG DST DATE
  round-trip     ORG DST DATE_OUT DATE_BACK
  chain-trip     ORG DST DATE [ORG DST DATE ...]
  perfect-chain  A1 DATE1 A2 DATE2 ... An DATEn A1`,
	Example: `  fare-service url one-way JFK LAX 2024-06-01
  fare-service url round-trip JFK LAX 2024-06-01 2024-06-08
  fare-service url perfect-chain JFK 2024-06-01 LAX 2024-06-05 SFO 2024-06-09 JFK --output json`,
	Args: cobra.MinimumNArgs(2),
	RunE: runURL,
}

func init() {
	rootCmd.AddCommand(urlCmd)

	urlCmd.Flags().StringVar(&urlOutput, "output", "table", "Output format: table or json")
}

// buildQuery builds a query from CLI positional arguments
func buildQuery(args []string) (*query.Query, error) {
	return query.BuildTag(args[0], args[1:])
}

func runURL(cmd *cobra.Command, args []string) error {
	q, err := buildQuery(args)
	if err != nil {
		return err
	}

	builder := query.DefaultURLBuilder()
	if cfg != nil {
		builder = pipeline.URLBuilderFromConfig(cfg.Search)
	}
	urls := q.URLs(builder)

	switch strings.ToLower(urlOutput) {
	case "json":
		type segmentURL struct {
			Segment query.Segment `json:"segment"`
			URL     string        `json:"url"`
		}
		out := make([]segmentURL, len(urls))
		for i, seg := range q.Segments() {
			out[i] = segmentURL{Segment: seg, URL: urls[i]}
		}
		return export.WriteJSON(os.Stdout, out)
	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "#\tSEGMENT\tURL")
		fmt.Fprintln(w, "-\t-------\t---")
		for i, seg := range q.Segments() {
			fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, seg, urls[i])
		}
		return w.Flush()
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", urlOutput)
	}
}
