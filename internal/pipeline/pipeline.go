package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"tennisdata/ingestion/internal/ingest"
	"tennisdata/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// Result is the outcome of one fetch or upload action. It is returned to the
// caller and handed explicitly to the next stage (preview, save) instead of
// living in shared state between actions.
type Result struct {
	Records   []models.FixtureRecord
	DayErrors []ingest.DayError
}

// PartitionStore is the warehouse surface the pipeline writes to and reads
// back from. *repository.FixtureRepository satisfies it.
type PartitionStore interface {
	ReplacePartition(ctx context.Context, key models.PartitionKey, rows []models.FixtureRecord) (deleted, inserted int64, err error)
	QueryPartition(ctx context.Context, key models.PartitionKey, limit int) ([]models.StoredFixture, error)
	CountPartition(ctx context.Context, key models.PartitionKey) (int, error)
}

// Pipeline wires the range fetcher to the warehouse. One instance serves all
// operator actions; each action runs to completion before the next.
type Pipeline struct {
	fetcher *ingest.RangeFetcher
	store   PartitionStore
}

// New creates a pipeline over a fixture source, an optional envelope cache
// and a partition store.
func New(source ingest.FixtureSource, envCache ingest.EnvelopeCache, store PartitionStore) *Pipeline {
	return &Pipeline{
		fetcher: ingest.NewRangeFetcher(source, envCache),
		store:   store,
	}
}

// FetchRange fetches and normalizes every day in key's range. Day failures
// are carried inside the Result; the returned error is only for caller-level
// validation failures.
func (p *Pipeline) FetchRange(ctx context.Context, key models.PartitionKey) (Result, error) {
	records, dayErrs, err := p.fetcher.FetchRange(ctx, key)
	if err != nil {
		return Result{}, err
	}
	return Result{Records: records, DayErrors: dayErrs}, nil
}

// LoadEnvelope is the upload fallback: it reads a JSON envelope (file or
// pasted text) and runs it through the same validation and normalization as
// the live API.
func (p *Pipeline) LoadEnvelope(r io.Reader) (Result, error) {
	records, err := ingest.DecodeEnvelope(r)
	if err != nil {
		return Result{}, err
	}
	log.Info().Int("records", len(records)).Msg("Envelope loaded from upload")
	return Result{Records: records}, nil
}

// Save replaces the partition identified by key with the result's records.
// An empty result clears the partition.
func (p *Pipeline) Save(ctx context.Context, key models.PartitionKey, result Result) (deleted, inserted int64, err error) {
	return p.store.ReplacePartition(ctx, key, result.Records)
}

// Query reads back a partition, ordered and bounded by limit.
func (p *Pipeline) Query(ctx context.Context, key models.PartitionKey, limit int) ([]models.StoredFixture, error) {
	return p.store.QueryPartition(ctx, key, limit)
}

// Count returns the number of stored rows in the partition.
func (p *Pipeline) Count(ctx context.Context, key models.PartitionKey) (int, error) {
	return p.store.CountPartition(ctx, key)
}

// WriteCSV writes normalized records as CSV with a header row, matching the
// destination table's record columns.
func WriteCSV(w io.Writer, records []models.FixtureRecord) error {
	cw := csv.NewWriter(w)

	header := []string{
		"event_key", "event_date", "event_time",
		"first_player", "second_player",
		"tournament_name", "event_type_type", "event_status",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for i := range records {
		rec := &records[i]
		row := []string{
			rec.EventKey, rec.EventDate, rec.EventTime,
			rec.FirstPlayer, rec.SecondPlayer,
			rec.TournamentName, rec.EventTypeType, rec.EventStatus,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
