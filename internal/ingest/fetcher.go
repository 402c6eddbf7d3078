package ingest

import (
	"context"
	"time"

	"tennisdata/ingestion/internal/metrics"
	"tennisdata/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// FixtureSource fetches one calendar day of fixtures. The HTTP client
// satisfies this; tests substitute fakes.
type FixtureSource interface {
	FetchFixtures(ctx context.Context, date time.Time, timezone string) (*models.Envelope, error)
}

// EnvelopeCache is an optional read-through cache consulted before the live
// call for each day. Cache failures degrade silently to the source.
type EnvelopeCache interface {
	GetEnvelope(ctx context.Context, date time.Time, timezone string) (*models.Envelope, bool)
	SetEnvelope(ctx context.Context, date time.Time, timezone string, env *models.Envelope)
}

// RangeFetcher iterates a date range day by day, normalizes each day's
// records, accumulates per-day failures without aborting the run, and
// deduplicates the merged result by event_key.
type RangeFetcher struct {
	source FixtureSource
	cache  EnvelopeCache
}

// NewRangeFetcher creates a fetcher over the given source. cache may be nil.
func NewRangeFetcher(source FixtureSource, cache EnvelopeCache) *RangeFetcher {
	return &RangeFetcher{source: source, cache: cache}
}

// FetchRange fetches every day in key's range, ascending. A network failure
// or an upstream success != 1 on one day is recorded as a DayError and the
// remaining days still run. The merged result preserves day order and keeps
// the first occurrence of each event_key.
//
// The returned error is non-nil only for caller-level validation failures;
// the fetch is not attempted in that case.
func (f *RangeFetcher) FetchRange(ctx context.Context, key models.PartitionKey) ([]models.FixtureRecord, []DayError, error) {
	if err := key.Validate(); err != nil {
		return nil, nil, &ValidationError{Reason: err.Error()}
	}

	days := key.Days()
	var merged []models.FixtureRecord
	var dayErrs []DayError

	for i, day := range days {
		log.Info().
			Str("day", day.Format(models.DateLayout)).
			Int("n", i+1).
			Int("of", len(days)).
			Str("timezone", key.Timezone).
			Msg("Fetching fixtures for day")

		env, err := f.fetchDay(ctx, day, key.Timezone)
		if err != nil {
			metrics.RecordFetchDay("error")
			log.Warn().Err(err).
				Str("day", day.Format(models.DateLayout)).
				Msg("Day fetch failed, continuing with remaining days")
			dayErrs = append(dayErrs, DayError{Day: day, Err: err})
			continue
		}
		if !env.OK() {
			metrics.RecordFetchDay("upstream_error")
			log.Warn().
				Str("day", day.Format(models.DateLayout)).
				Str("message", env.ErrorMessage()).
				Msg("Upstream flagged failure for day, continuing")
			dayErrs = append(dayErrs, DayError{Day: day, Err: &UpstreamError{Message: env.ErrorMessage()}})
			continue
		}

		metrics.RecordFetchDay("success")
		merged = append(merged, models.NormalizeAll(env.Result)...)
	}

	deduped := dedupByKey(merged)
	log.Info().
		Str("range", key.String()).
		Int("fetched", len(merged)).
		Int("deduped", len(deduped)).
		Int("failed_days", len(dayErrs)).
		Msg("Range fetch complete")

	return deduped, dayErrs, nil
}

func (f *RangeFetcher) fetchDay(ctx context.Context, day time.Time, timezone string) (*models.Envelope, error) {
	if f.cache != nil {
		if env, ok := f.cache.GetEnvelope(ctx, day, timezone); ok {
			return env, nil
		}
	}

	env, err := f.source.FetchFixtures(ctx, day, timezone)
	if err != nil {
		return nil, err
	}

	if f.cache != nil && env.OK() {
		f.cache.SetEnvelope(ctx, day, timezone, env)
	}
	return env, nil
}

// dedupByKey drops later records sharing an earlier record's event_key.
// Records with an empty key are kept as-is; an empty key identifies nothing.
func dedupByKey(records []models.FixtureRecord) []models.FixtureRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]models.FixtureRecord, 0, len(records))
	for _, rec := range records {
		if rec.EventKey != "" {
			if _, dup := seen[rec.EventKey]; dup {
				continue
			}
			seen[rec.EventKey] = struct{}{}
		}
		out = append(out, rec)
	}
	return out
}
