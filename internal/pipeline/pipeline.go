// Package pipeline drives queries through rendering, parsing and merging,
// one segment at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/farewatch/fare-service/internal/aggregate"
	"github.com/farewatch/fare-service/internal/database"
	"github.com/farewatch/fare-service/internal/http/ratelimit"
	"github.com/farewatch/fare-service/internal/merge"
	"github.com/farewatch/fare-service/internal/parsers/flights"
	"github.com/farewatch/fare-service/internal/parsers/text"
	"github.com/farewatch/fare-service/internal/query"
	"github.com/farewatch/fare-service/internal/render"
	"github.com/farewatch/fare-service/internal/storage"
	"github.com/farewatch/fare-service/internal/telemetry"
	"github.com/farewatch/fare-service/internal/types"
)

// Job is one query to run, labelled with the entity it belongs to
type Job struct {
	ID     string       `json:"id"`
	Entity string       `json:"entity"`
	Query  *query.Query `json:"-"`
}

// Segment statuses
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// SegmentReport describes what happened to one segment
type SegmentReport struct {
	JobID     string            `json:"jobId"`
	Entity    string            `json:"entity"`
	Index     int               `json:"index"`
	Segment   query.Segment     `json:"segment"`
	URL       string            `json:"url"`
	Status    string            `json:"status"`
	FromCache bool              `json:"fromCache"`
	Records   int               `json:"records"`
	Skipped   int               `json:"skipped"`
	Condition flights.Condition `json:"condition,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Report is the outcome of a run
type Report struct {
	RunID      string          `json:"runId"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	Offers     []merge.Offer   `json:"offers"`
	Segments   []SegmentReport `json:"segments"`
	// Filtered counts parsed offers dropped as placeholders or unpriced
	Filtered int `json:"filtered"`
}

// Failed returns the number of failed segments
func (r *Report) Failed() int {
	n := 0
	for _, s := range r.Segments {
		if s.Status == StatusFailed {
			n++
		}
	}
	return n
}

// Skipped returns the number of dropped candidate groups across all segments
func (r *Report) Skipped() int {
	n := 0
	for _, s := range r.Segments {
		n += s.Skipped
	}
	return n
}

// Store persists finished runs
type Store interface {
	SaveRun(ctx context.Context, run *database.Run) error
	SaveOffers(ctx context.Context, runID string, offers []merge.Offer) (int, error)
}

// Options configures a Runner
type Options struct {
	Renderer render.Renderer
	// Cache reuses previously rendered pages; nil disables caching
	Cache      *storage.PageCache
	Store      Store
	URLBuilder query.URLBuilder
	// Retry drives pacing and the bounded retry around each render
	Retry            ratelimit.Config
	MinContentLength int
	Normalizer       text.Options
	Parser           flights.Options
	// Placeholders are airline labels dropped from the offers;
	// aggregate.DefaultPlaceholders when nil
	Placeholders []string
	Logger       *zerolog.Logger
}

// Runner processes jobs sequentially. A single Runner must not be used by
// concurrent Run calls; the renderer is treated as one stateful session.
type Runner struct {
	renderer   render.Renderer
	cache      *storage.PageCache
	store      Store
	urls       query.URLBuilder
	retry      ratelimit.Config
	pacer      *ratelimit.Pacer
	minContent int
	normalizer   *text.Normalizer
	parser       *flights.Parser
	placeholders []string
	tracer       trace.Tracer
	logger       *zerolog.Logger
}

// NewRunner creates a runner from options
func NewRunner(opts Options) (*Runner, error) {
	if opts.Renderer == nil {
		return nil, errors.New("pipeline: renderer is required")
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.URLBuilder.BaseURL == "" {
		opts.URLBuilder = query.DefaultURLBuilder()
	}
	if opts.Parser.Logger == nil {
		opts.Parser.Logger = logger
	}

	return &Runner{
		renderer:   opts.Renderer,
		cache:      opts.Cache,
		store:      opts.Store,
		urls:       opts.URLBuilder,
		retry:      opts.Retry,
		pacer:      ratelimit.NewPacer(opts.Retry),
		minContent: opts.MinContentLength,
		normalizer:   text.NewNormalizer(opts.Normalizer),
		parser:       flights.NewParser(opts.Parser),
		placeholders: opts.Placeholders,
		tracer:       telemetry.Tracer(),
		logger:       logger,
	}, nil
}

// Run processes every segment of every job in order, attaches the results
// to each job's query and merges them. A failed segment is recorded and
// skipped; only context cancellation aborts the run.
func (r *Runner) Run(ctx context.Context, jobs []Job) (*Report, error) {
	start := time.Now()
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: start.UTC(),
		Offers:    make([]merge.Offer, 0),
		Segments:  make([]SegmentReport, 0),
	}

	ctx, span := r.tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(
		attribute.String("run.id", report.RunID),
		attribute.Int("run.jobs", len(jobs)),
	))
	defer span.End()

	r.logger.Info().
		Str("runID", report.RunID).
		Int("jobs", len(jobs)).
		Msg("Starting run")

	merger := merge.NewMerger()
	for _, job := range jobs {
		if job.Query == nil {
			continue
		}

		segments := job.Query.Segments()
		results := make([]query.SegmentResult, 0, len(segments))
		for i, seg := range segments {
			if err := ctx.Err(); err != nil {
				span.SetStatus(codes.Error, "cancelled")
				return report, err
			}
			res, segReport := r.runSegment(ctx, job, i, seg)
			results = append(results, res)
			report.Segments = append(report.Segments, segReport)
		}

		job.Query.SetResults(results)
		merger.AddQuery(job.ID, job.Entity, job.Query)
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	merged := merger.Offers()
	report.Offers = aggregate.FilterPlaceholders(merged, r.placeholders)
	report.Filtered = len(merged) - len(report.Offers)
	offersFiltered.Add(float64(report.Filtered))
	report.FinishedAt = time.Now().UTC()
	runDuration.Observe(time.Since(start).Seconds())

	span.SetAttributes(
		attribute.Int("run.offers", len(report.Offers)),
		attribute.Int("run.filtered", report.Filtered),
		attribute.Int("run.failed_segments", report.Failed()),
	)

	if r.store != nil {
		if err := r.persist(ctx, report, len(jobs)); err != nil {
			span.RecordError(err)
			r.logger.Error().Err(err).Str("runID", report.RunID).Msg("Failed to persist run")
			return report, err
		}
	}

	r.logger.Info().
		Str("runID", report.RunID).
		Int("offers", len(report.Offers)).
		Int("segments", len(report.Segments)).
		Int("failed", report.Failed()).
		Int("skipped", report.Skipped()).
		Int("filtered", report.Filtered).
		Dur("duration", time.Since(start)).
		Msg("Run complete")

	return report, nil
}

func (r *Runner) runSegment(ctx context.Context, job Job, index int, seg query.Segment) (query.SegmentResult, SegmentReport) {
	url := r.urls.SegmentURL(seg)
	res := query.SegmentResult{Segment: seg, URL: url, Records: make([]types.FlightRecord, 0)}
	rep := SegmentReport{JobID: job.ID, Entity: job.Entity, Index: index, Segment: seg, URL: url}

	ctx, span := r.tracer.Start(ctx, "pipeline.Segment", trace.WithAttributes(
		attribute.String("segment", seg.String()),
		attribute.String("job.id", job.ID),
	))
	defer span.End()

	raw, fromCache, err := r.fetch(ctx, seg, url)
	rep.FromCache = fromCache
	if err != nil {
		res.Err = err
		rep.Status = StatusFailed
		rep.Error = err.Error()
		segmentsTotal.WithLabelValues(StatusFailed).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "segment failed")
		r.logger.Warn().
			Err(err).
			Str("segment", seg.String()).
			Str("jobID", job.ID).
			Msg("Segment failed, skipping")
		return res, rep
	}

	parsed := r.parser.Parse(r.normalizer.Lines(raw), seg)
	res.Records = parsed.Records
	res.Skipped = parsed.SkippedCount()

	rep.Status = StatusOK
	rep.Records = len(parsed.Records)
	rep.Skipped = parsed.SkippedCount()
	rep.Condition = parsed.Condition

	segmentsTotal.WithLabelValues(StatusOK).Inc()
	recordsParsed.Add(float64(len(parsed.Records)))
	for _, skip := range parsed.Skips {
		recordsSkipped.WithLabelValues(string(skip.Reason)).Inc()
	}
	span.SetAttributes(
		attribute.Int("records", rep.Records),
		attribute.Int("skipped", rep.Skipped),
		attribute.Bool("cached", fromCache),
	)

	r.logger.Debug().
		Str("segment", seg.String()).
		Int("records", rep.Records).
		Int("skipped", rep.Skipped).
		Str("condition", string(parsed.Condition)).
		Bool("cached", fromCache).
		Msg("Segment parsed")

	return res, rep
}

// fetch returns the page text from the cache or the renderer. Pages at or
// below the content threshold are never parsed or cached.
func (r *Runner) fetch(ctx context.Context, seg query.Segment, url string) (string, bool, error) {
	if r.cache != nil {
		cached, ok, err := r.cache.Load(ctx, seg, url)
		switch {
		case err != nil:
			pageCacheLookups.WithLabelValues("error").Inc()
			r.logger.Warn().Err(err).Str("url", url).Msg("Page cache lookup failed")
		case ok && render.CheckContent(url, cached, r.minContent) == nil:
			pageCacheLookups.WithLabelValues("hit").Inc()
			return cached, true, nil
		default:
			pageCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	start := time.Now()
	var page string
	err := ratelimit.Retry(ctx, r.retry, url, retryable, func(ctx context.Context) error {
		if err := r.pacer.Wait(ctx); err != nil {
			return err
		}
		text, err := r.renderer.Render(ctx, url)
		if err != nil {
			return err
		}
		if err := render.CheckContent(url, text, r.minContent); err != nil {
			return err
		}
		page = text
		return nil
	})
	if err != nil {
		return "", false, err
	}
	renderDuration.Observe(time.Since(start).Seconds())

	if r.cache != nil {
		if err := r.cache.Save(ctx, seg, url, page); err != nil {
			r.logger.Warn().Err(err).Str("url", url).Msg("Failed to cache page")
		}
	}
	return page, false, nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var sc ratelimit.StatusCoder
	if errors.As(err, &sc) {
		return ratelimit.IsRetryableStatus(sc.StatusCode())
	}
	return true
}

func (r *Runner) persist(ctx context.Context, report *Report, queries int) error {
	status := database.RunStatusCompleted
	switch failed := report.Failed(); {
	case failed == len(report.Segments) && failed > 0:
		status = database.RunStatusFailed
	case failed > 0:
		status = database.RunStatusPartial
	}

	finished := report.FinishedAt
	run := &database.Run{
		ID:             report.RunID,
		Status:         status,
		QueryCount:     queries,
		SegmentCount:   len(report.Segments),
		FailedSegments: report.Failed(),
		OfferCount:     len(report.Offers),
		SkippedCount:   report.Skipped(),
		StartedAt:      report.StartedAt,
		FinishedAt:     &finished,
	}
	if err := r.store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	if _, err := r.store.SaveOffers(ctx, report.RunID, report.Offers); err != nil {
		return fmt.Errorf("save offers: %w", err)
	}
	return nil
}
