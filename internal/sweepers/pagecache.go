package sweepers

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/farewatch/fare-service/internal/storage"
)

// Pruner removes expired entries and reports how many were removed
type Pruner interface {
	Prune(ctx context.Context) (int, error)
}

var _ Pruner = (*storage.PageCache)(nil)

// PageCacheSweeper periodically removes expired pages from the page cache
type PageCacheSweeper struct {
	cache    Pruner
	logger   *zerolog.Logger
	interval time.Duration
	stopChan chan struct{}
}

// NewPageCacheSweeper creates a new sweeper for page cache maintenance
func NewPageCacheSweeper(cache Pruner, logger *zerolog.Logger, interval time.Duration) *PageCacheSweeper {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &PageCacheSweeper{
		cache:    cache,
		logger:   logger,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start sweeps every interval until ctx is done or Stop is called
func (s *PageCacheSweeper) Start(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Msg("Starting page cache sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Page cache sweeper stopping (context cancelled)")
			return
		case <-s.stopChan:
			s.logger.Info().Msg("Page cache sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Failed to prune page cache")
			}
		}
	}
}

// Stop signals the sweeper to stop
func (s *PageCacheSweeper) Stop() {
	close(s.stopChan)
}

// Sweep prunes the cache once
func (s *PageCacheSweeper) Sweep(ctx context.Context) (int, error) {
	s.logger.Debug().Msg("Running page cache prune")

	removed, err := s.cache.Prune(ctx)
	if err != nil {
		return removed, err
	}
	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("Pruned expired pages")
	}
	return removed, nil
}
