// Package scheduler runs periodic housekeeping: pruning old captures and
// logging daily traffic statistics.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/furcwire-project/furcwire/internal/config"
	"github.com/furcwire-project/furcwire/internal/network"
)

// Pruner removes captures older than a cutoff.
type Pruner interface {
	Prune(cutoff time.Time) (int64, error)
	Count() (int, error)
}

// StatsSource reports transport counters for the current session.
type StatsSource interface {
	Stats() (network.Stats, bool)
}

// Scheduler manages periodic background tasks.
type Scheduler struct {
	capture config.CaptureConfig
	journal Pruner
	stats   StatsSource
	now     func() time.Time
}

// NewScheduler creates a scheduler. journal may be nil when capture is
// disabled.
func NewScheduler(capture config.CaptureConfig, journal Pruner, stats StatsSource) *Scheduler {
	return &Scheduler{
		capture: capture,
		journal: journal,
		stats:   stats,
		now:     time.Now,
	}
}

// Start runs all scheduled tasks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	log.Info().Msg("scheduler started")

	if s.journal != nil && s.capture.RetentionDays > 0 {
		go s.runCleanerLoop(ctx)
	}
	if s.stats != nil {
		go s.runStatsLoop(ctx)
	}

	<-ctx.Done()
	log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) runCleanerLoop(ctx context.Context) {
	for {
		next := s.NextCleanup()
		sleep := next.Sub(s.now())
		if sleep <= 0 {
			sleep = 24 * time.Hour
		}

		log.Info().
			Time("next_run", next).
			Dur("sleep", sleep).
			Msg("capture cleaner scheduled")

		select {
		case <-ctx.Done():
			return
		case <-time.After(sleep):
			s.PruneCaptures()
		}
	}
}

// PruneCaptures deletes captures older than the retention window.
func (s *Scheduler) PruneCaptures() (int64, error) {
	cutoff := s.now().Add(-time.Duration(s.capture.RetentionDays) * 24 * time.Hour)
	deleted, err := s.journal.Prune(cutoff)
	if err != nil {
		log.Warn().Err(err).Msg("capture cleaner failed")
		return 0, err
	}

	remaining, _ := s.journal.Count()
	log.Info().
		Int64("deleted", deleted).
		Int("remaining", remaining).
		Int("retention_days", s.capture.RetentionDays).
		Msg("capture cleaner completed")
	return deleted, nil
}

// NextCleanup returns the next occurrence of the configured cleanup time.
func (s *Scheduler) NextCleanup() time.Time {
	hour, minute, ok := config.ParseClock(s.capture.CleanupTime)
	if !ok {
		hour, minute = 4, 0
	}

	now := s.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

func (s *Scheduler) runStatsLoop(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	var lastIn, lastOut int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, ok := s.stats.Stats()
			if !ok {
				log.Info().Msg("daily stats: no session")
				continue
			}
			if stats.BytesIn < lastIn {
				lastIn, lastOut = 0, 0
			}
			log.Info().
				Str("received", formatBytes(stats.BytesIn-lastIn)).
				Str("sent", formatBytes(stats.BytesOut-lastOut)).
				Time("connected_at", stats.ConnectedAt).
				Msg("daily stats collected")
			lastIn, lastOut = stats.BytesIn, stats.BytesOut
		}
	}
}

// formatBytes formats bytes into human-readable format.
func formatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
