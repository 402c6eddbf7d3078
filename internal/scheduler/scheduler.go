package scheduler

import (
	"context"
	"fmt"
	"time"

	"tennisdata/ingestion/internal/config"
	"tennisdata/ingestion/internal/models"
	"tennisdata/ingestion/internal/pipeline"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler refreshes the current day's fixture partition on a cron
// schedule. Each run is the same fetch-normalize-replace action an operator
// would trigger manually, scoped to today in the configured timezone.
type Scheduler struct {
	cfg  *config.Config
	pipe *pipeline.Pipeline
	cron *cron.Cron
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg *config.Config, pipe *pipeline.Pipeline) *Scheduler {
	return &Scheduler{
		cfg:  cfg,
		pipe: pipe,
		cron: cron.New(),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if _, err := s.cron.AddFunc(s.cfg.DailyRefreshCron, func() {
		log.Info().Msg("Running daily fixture refresh...")
		if err := s.RefreshToday(ctx); err != nil {
			log.Error().Err(err).Msg("Daily fixture refresh failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule daily refresh: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.cfg.DailyRefreshCron).
		Msg("Daily fixture refresh scheduled")

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")
	if s.cron != nil {
		s.cron.Stop()
	}
	log.Info().Msg("Scheduler stopped")
}

// RefreshToday fetches today's fixtures in the configured timezone and
// replaces that single-day partition. Day errors from the fetch are logged;
// the partition is still replaced with whatever was fetched, matching the
// manual save behavior.
func (s *Scheduler) RefreshToday(ctx context.Context) error {
	loc, err := time.LoadLocation(s.cfg.DefaultTimezone)
	if err != nil {
		return fmt.Errorf("invalid default timezone %q: %w", s.cfg.DefaultTimezone, err)
	}

	now := time.Now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	key := models.PartitionKey{StartDate: today, EndDate: today, Timezone: s.cfg.DefaultTimezone}

	result, err := s.pipe.FetchRange(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to fetch today's fixtures: %w", err)
	}

	for _, dayErr := range result.DayErrors {
		log.Warn().
			Str("day", dayErr.Day.Format(models.DateLayout)).
			Err(dayErr.Err).
			Msg("Day failed during scheduled refresh")
	}

	if len(result.Records) == 0 && len(result.DayErrors) > 0 {
		// Nothing fetched and the day itself failed; keep the existing
		// partition rather than clearing it with stale-looking emptiness.
		return fmt.Errorf("scheduled refresh fetched no records: %v", result.DayErrors[0])
	}

	deleted, inserted, err := s.pipe.Save(ctx, key, result)
	if err != nil {
		return fmt.Errorf("failed to replace today's partition: %w", err)
	}

	log.Info().
		Str("partition", key.String()).
		Int64("deleted", deleted).
		Int64("inserted", inserted).
		Msg("Scheduled refresh complete")

	return nil
}
