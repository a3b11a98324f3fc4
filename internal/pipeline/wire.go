package pipeline

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/farewatch/fare-service/config"
	"github.com/farewatch/fare-service/internal/parsers/flights"
	"github.com/farewatch/fare-service/internal/query"
	"github.com/farewatch/fare-service/internal/render"
	"github.com/farewatch/fare-service/internal/storage"
)

// URLBuilderFromConfig returns the segment URL builder for the search section
func URLBuilderFromConfig(cfg config.SearchConfig) query.URLBuilder {
	return query.URLBuilder{
		BaseURL:  cfg.BaseURL,
		Language: cfg.Language,
		Currency: cfg.Currency,
	}
}

// ParserFromConfig returns parser options for the search section
func ParserFromConfig(cfg config.SearchConfig, logger *zerolog.Logger) flights.Options {
	return flights.Options{
		StartAfter: cfg.StartAfter,
		StopAt:     cfg.StopAt,
		Logger:     logger,

		RequireClosingMarker: cfg.RequireClosingMarker,
	}
}

// OptionsFromConfig wires an HTTP renderer, the page cache and the given
// store into runner options
func OptionsFromConfig(cfg *config.Config, store Store, logger *zerolog.Logger) (Options, error) {
	renderer, err := render.NewHTTPRenderer(render.HTTPOptions{
		Endpoint: cfg.Render.Endpoint,
		WaitFor:  cfg.Render.Wait,
		Timeout:  cfg.Render.Timeout,
		Logger:   logger,
	})
	if err != nil {
		return Options{}, fmt.Errorf("failed to create renderer: %w", err)
	}

	opts := Options{
		Renderer:         renderer,
		Store:            store,
		URLBuilder:       URLBuilderFromConfig(cfg.Search),
		Retry:            cfg.RateLimit.Retry(),
		MinContentLength: cfg.Render.MinContentLength,
		Parser:           ParserFromConfig(cfg.Search, logger),
		Placeholders:     cfg.Aggregate.Placeholders,
		Logger:           logger,
	}

	if cfg.Cache.Enabled {
		local, err := storage.NewLocalStorage(cfg.Cache.BasePath)
		if err != nil {
			return Options{}, fmt.Errorf("failed to open page cache: %w", err)
		}
		opts.Cache = storage.NewPageCache(local, cfg.Cache.MaxAge)
	}

	return opts, nil
}
