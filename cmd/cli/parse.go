package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/farewatch/fare-service/internal/export"
	"github.com/farewatch/fare-service/internal/merge"
	"github.com/farewatch/fare-service/internal/parsers/charset"
	"github.com/farewatch/fare-service/internal/parsers/flights"
	"github.com/farewatch/fare-service/internal/parsers/text"
	"github.com/farewatch/fare-service/internal/pipeline"
	"github.com/farewatch/fare-service/internal/query"
)

var (
	parseOrigin      string
	parseDestination string
	parseDate        string
	parseEncoding    string
	parseOutput      string
	parseASCII       bool
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse <file|->",
	Short: "Parse saved results-page text into flight records",
	Long: `Parse the visible text of a results page that was saved to disk (or piped on
stdin) into flight records, without rendering anything. The segment flags stamp
origin, destination and date on every record.

Supported encodings: auto (default), utf-8, utf-16, windows-1250, windows-1252,
iso-8859-1, iso-8859-2`,
	Example: `  fare-service parse ./page.txt --origin JFK --destination LAX --date 2024-06-01
  cat page.txt | fare-service parse - --origin JFK --destination LAX --date 2024-06-01 --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVar(&parseOrigin, "origin", "", "Origin airport code (required)")
	parseCmd.Flags().StringVar(&parseDestination, "destination", "", "Destination airport code (required)")
	parseCmd.Flags().StringVar(&parseDate, "date", "", "Search date, YYYY-MM-DD (required)")
	parseCmd.Flags().StringVar(&parseEncoding, "encoding", "auto", "File encoding")
	parseCmd.Flags().StringVar(&parseOutput, "output", "table", "Output format: table or json")
	parseCmd.Flags().BoolVar(&parseASCII, "ascii", false, "Drop every non-ASCII rune after normalization")
	parseCmd.MarkFlagRequired("origin")
	parseCmd.MarkFlagRequired("destination")
	parseCmd.MarkFlagRequired("date")
}

func runParse(cmd *cobra.Command, args []string) error {
	q, err := query.Build(query.OneWay, []string{
		strings.ToUpper(parseOrigin), strings.ToUpper(parseDestination), parseDate,
	})
	if err != nil {
		return err
	}
	seg := q.Segments()[0]

	var content []byte
	if args[0] == "-" {
		content, err = io.ReadAll(os.Stdin)
	} else {
		content, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	logger.Info().Str("file", args[0]).Msgf("Read %d bytes", len(content))

	normalizer := text.NewNormalizer(text.Options{ASCIIOnly: parseASCII})
	lines, err := normalizer.LinesFromBytes(content, charset.ParseEncoding(parseEncoding))
	if err != nil {
		return fmt.Errorf("failed to decode input: %w", err)
	}

	opts := flights.Options{Logger: logger}
	if cfg != nil {
		opts = pipeline.ParserFromConfig(cfg.Search, logger)
	}
	result := flights.NewParser(opts).Parse(lines, seg)

	logger.Info().
		Int("lines", len(lines)).
		Int("markers", result.Markers).
		Int("records", len(result.Records)).
		Int("skipped", result.SkippedCount()).
		Str("condition", string(result.Condition)).
		Msg("Parse complete")

	switch strings.ToLower(parseOutput) {
	case "json":
		return export.WriteJSON(os.Stdout, result)
	case "table":
		merger := merge.NewMerger()
		merger.AddRecords(merge.Provenance{QueryID: "parse", SearchDate: seg.Date}, result.Records)
		export.OffersTable(os.Stdout, merger.Offers())
		for _, skip := range result.Skips {
			fmt.Printf("skipped group %d (line %d): %s\n", skip.Group, skip.StartLine, skip.Reason)
		}
		return nil
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", parseOutput)
	}
}
