package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"tennisdata/ingestion/internal/ingest"
	"tennisdata/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

type fakeSource struct {
	envelope *models.Envelope
	err      error
}

func (f *fakeSource) FetchFixtures(ctx context.Context, date time.Time, tz string) (*models.Envelope, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.envelope, nil
}

// memStore implements PartitionStore over an in-memory partition map so
// pipeline behavior can be checked without a database.
type memStore struct {
	partitions map[string][]models.StoredFixture
}

func newMemStore() *memStore {
	return &memStore{partitions: map[string][]models.StoredFixture{}}
}

func (s *memStore) ReplacePartition(ctx context.Context, key models.PartitionKey, rows []models.FixtureRecord) (int64, int64, error) {
	deleted := int64(len(s.partitions[key.String()]))
	stored := make([]models.StoredFixture, 0, len(rows))
	for _, rec := range rows {
		stored = append(stored, models.StoredFixture{
			FixtureRecord: rec,
			SourceDate:    key.StartDate,
			TimezoneUsed:  key.Timezone,
			IngestedAt:    time.Now(),
		})
	}
	s.partitions[key.String()] = stored
	return deleted, int64(len(stored)), nil
}

func (s *memStore) QueryPartition(ctx context.Context, key models.PartitionKey, limit int) ([]models.StoredFixture, error) {
	rows := s.partitions[key.String()]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *memStore) CountPartition(ctx context.Context, key models.PartitionKey) (int, error) {
	return len(s.partitions[key.String()]), nil
}

func singleDayKey(s string) models.PartitionKey {
	return models.PartitionKey{StartDate: day(s), EndDate: day(s), Timezone: "UTC"}
}

func TestPipeline_FetchRangeThenSave(t *testing.T) {
	source := &fakeSource{envelope: &models.Envelope{
		Success: 1,
		Result: []models.FixtureInput{
			{EventKey: "1", FirstPlayer: "A", SecondPlayer: "B"},
			{EventKey: "2", FirstPlayer: "C", SecondPlayer: "D"},
		},
	}}
	store := newMemStore()
	pipe := New(source, nil, store)
	key := singleDayKey("2024-02-01")

	result, err := pipe.FetchRange(context.Background(), key)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Empty(t, result.DayErrors)

	deleted, inserted, err := pipe.Save(context.Background(), key, result)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
	assert.Equal(t, int64(2), inserted)

	count, err := pipe.Count(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPipeline_SaveEmptyResultClearsPartition(t *testing.T) {
	store := newMemStore()
	pipe := New(&fakeSource{envelope: &models.Envelope{Success: 1}}, nil, store)
	key := singleDayKey("2024-02-01")

	// Seed the partition, then save an empty result over it.
	_, _, err := store.ReplacePartition(context.Background(), key, []models.FixtureRecord{{EventKey: "old"}})
	require.NoError(t, err)

	deleted, inserted, err := pipe.Save(context.Background(), key, Result{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, int64(0), inserted)

	count, err := pipe.Count(context.Background(), key)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPipeline_LoadEnvelope(t *testing.T) {
	pipe := New(&fakeSource{}, nil, newMemStore())

	result, err := pipe.LoadEnvelope(strings.NewReader(
		`{"success": 1, "result": [{"match_key": 5, "tournament_name": "WTA Rome"}]}`))
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "5", result.Records[0].EventKey)
	assert.Equal(t, "WTA Rome", result.Records[0].TournamentName)
}

func TestPipeline_LoadEnvelope_RejectsFailedUpload(t *testing.T) {
	pipe := New(&fakeSource{}, nil, newMemStore())

	_, err := pipe.LoadEnvelope(strings.NewReader(`{"success": 0, "message": "expired"}`))
	require.Error(t, err)
	var upErr *ingest.UpstreamError
	assert.ErrorAs(t, err, &upErr)

	_, err = pipe.LoadEnvelope(strings.NewReader(`not json at all`))
	require.Error(t, err)
	var malErr *ingest.MalformedPayloadError
	assert.ErrorAs(t, err, &malErr)
}

func TestPipeline_FetchRange_PropagatesValidationError(t *testing.T) {
	pipe := New(&fakeSource{}, nil, newMemStore())
	key := models.PartitionKey{StartDate: day("2024-02-02"), EndDate: day("2024-02-01"), Timezone: "UTC"}

	_, err := pipe.FetchRange(context.Background(), key)
	require.Error(t, err)
	var vErr *ingest.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestWriteCSV(t *testing.T) {
	records := []models.FixtureRecord{
		{EventKey: "1", EventDate: "2024-02-01", FirstPlayer: "A", SecondPlayer: "B", TournamentName: "ATP Doha"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "event_key,event_date,event_time,first_player,second_player,tournament_name,event_type_type,event_status", lines[0])
	assert.Equal(t, "1,2024-02-01,,A,B,ATP Doha,,", lines[1])
}

func TestWriteCSV_NoRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"), "header only")
}
