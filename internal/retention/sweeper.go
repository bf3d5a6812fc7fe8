// Package retention implements the background data-retention sweep.
//
// Stored quotes carry personal data, so they are not kept forever: quotes
// older than the configured maximum age are soft-deleted, and soft-deleted
// rows past an additional grace period are purged for good. The sweep runs on
// a fixed interval in its own goroutine and stops cleanly on shutdown.
package retention

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/quotora/go-quote-backend/internal/config"
	"github.com/quotora/go-quote-backend/internal/repo"
)

// Sweeper periodically retires and purges aged quote records.
type Sweeper struct {
	db   *gorm.DB
	cfg  config.RetentionConfig
	stop chan struct{}
	done chan struct{}
}

// NewSweeper builds a sweeper; call Start to begin sweeping.
func NewSweeper(db *gorm.DB, cfg config.RetentionConfig) *Sweeper {
	return &Sweeper{
		db:   db,
		cfg:  cfg,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start launches the sweep loop. An initial sweep runs immediately so a
// long-stopped instance catches up on restart. Start is a no-op when the
// interval is not positive.
func (s *Sweeper) Start() {
	if s.cfg.SweepInterval <= 0 {
		close(s.done)
		return
	}
	go s.loop()
}

// Stop signals the loop to exit and waits for the in-progress sweep.
func (s *Sweeper) Stop() {
	select {
	case <-s.done:
		return
	default:
	}
	close(s.stop)
	<-s.done
}

func (s *Sweeper) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	s.sweep()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep performs one retire-and-purge pass. Errors are logged, never fatal:
// the next tick retries.
func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	now := time.Now()

	if s.cfg.MaxAge > 0 {
		cutoff := now.Add(-s.cfg.MaxAge)
		retired, err := repo.SoftDeleteQuotesBefore(ctx, s.db, cutoff)
		if err != nil {
			log.Error().Err(err).Msg("retention: soft-delete pass failed")
		} else if retired > 0 {
			log.Info().Int64("retired", retired).Time("cutoff", cutoff).Msg("retention: quotes retired")
		}
	}

	if s.cfg.PurgeGrace > 0 {
		cutoff := now.Add(-s.cfg.PurgeGrace)
		purged, err := repo.PurgeQuotesDeletedBefore(ctx, s.db, cutoff)
		if err != nil {
			log.Error().Err(err).Msg("retention: purge pass failed")
		} else if purged > 0 {
			log.Info().Int64("purged", purged).Time("cutoff", cutoff).Msg("retention: quotes purged")
		}
	}
}
