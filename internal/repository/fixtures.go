package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"tennisdata/ingestion/internal/ingest"
	"tennisdata/ingestion/internal/metrics"
	"tennisdata/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// identifierPattern allow-lists table names before they are interpolated
// into query text. The table name is operator-supplied configuration; every
// value in a query goes through $n placeholders instead.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// fixtureColumns is the insert column list; ingested_at is left to its
// server-side default.
var fixtureColumns = []string{
	"event_key", "event_date", "event_time",
	"first_player", "second_player",
	"tournament_name", "event_type_type", "event_status",
	"source_date", "timezone_used",
}

// FixtureRepository handles fixture warehouse operations. The destination
// table is partitioned logically by (source_date, timezone_used); writes
// always replace a whole partition.
type FixtureRepository struct {
	db    *Database
	table string
}

// NewFixtureRepository validates the destination table name and returns the
// repository. An identifier outside the allow-list is rejected outright.
func NewFixtureRepository(db *Database, table string) (*FixtureRepository, error) {
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid fixtures table name %q", table)
	}
	return &FixtureRepository{db: db, table: table}, nil
}

// EnsureSchema creates the destination table and its partition index if they
// do not exist. An existing table is never altered.
func (r *FixtureRepository) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			event_key       TEXT NOT NULL DEFAULT '',
			event_date      TEXT NOT NULL DEFAULT '',
			event_time      TEXT NOT NULL DEFAULT '',
			first_player    TEXT NOT NULL DEFAULT '',
			second_player   TEXT NOT NULL DEFAULT '',
			tournament_name TEXT NOT NULL DEFAULT '',
			event_type_type TEXT NOT NULL DEFAULT '',
			event_status    TEXT NOT NULL DEFAULT '',
			source_date     DATE NOT NULL,
			timezone_used   TEXT NOT NULL,
			ingested_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, r.table)

	if _, err := r.db.Pool.Exec(ctx, ddl); err != nil {
		return &ingest.PersistenceError{Op: "ensure schema", Err: err}
	}

	index := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s_partition_idx ON %s (source_date, timezone_used)`,
		r.table, r.table,
	)
	if _, err := r.db.Pool.Exec(ctx, index); err != nil {
		return &ingest.PersistenceError{Op: "ensure index", Err: err}
	}

	log.Debug().Str("table", r.table).Msg("Fixtures schema ensured")
	return nil
}

// ReplacePartition replaces the partition identified by key with rows:
// delete everything matching (source_date in range, timezone_used), then
// bulk-insert. The delete runs even when rows is empty, which clears the
// partition. The two steps are not wrapped in one transaction; a failure
// between them leaves the partition empty and the operator re-runs the save.
//
// Each row is stamped with timezone_used and a source_date: its own
// event_date when that parses and falls inside the key's range, else the
// key's start date.
func (r *FixtureRepository) ReplacePartition(ctx context.Context, key models.PartitionKey, rows []models.FixtureRecord) (int64, int64, error) {
	if err := key.Validate(); err != nil {
		return 0, 0, &ingest.ValidationError{Reason: err.Error()}
	}

	start := time.Now()

	deleted, err := r.deletePartition(ctx, key)
	if err != nil {
		metrics.RecordSync("error", time.Since(start).Seconds(), 0, 0)
		return 0, 0, err
	}

	if len(rows) == 0 {
		metrics.RecordSync("success", time.Since(start).Seconds(), deleted, 0)
		log.Info().
			Str("partition", key.String()).
			Int64("deleted", deleted).
			Msg("Partition cleared")
		return deleted, 0, nil
	}

	copyRows := make([][]interface{}, 0, len(rows))
	for i := range rows {
		rec := &rows[i]
		sourceDate := key.StartDate
		if d, ok := rec.ParsedEventDate(); ok && !d.Before(key.StartDate) && !d.After(key.EndDate) {
			sourceDate = d
		}
		copyRows = append(copyRows, []interface{}{
			rec.EventKey, rec.EventDate, rec.EventTime,
			rec.FirstPlayer, rec.SecondPlayer,
			rec.TournamentName, rec.EventTypeType, rec.EventStatus,
			sourceDate, key.Timezone,
		})
	}

	inserted, err := r.db.Pool.CopyFrom(
		ctx,
		pgx.Identifier{r.table},
		fixtureColumns,
		pgx.CopyFromRows(copyRows),
	)
	if err != nil {
		metrics.RecordSync("error", time.Since(start).Seconds(), 0, 0)
		return deleted, 0, &ingest.PersistenceError{Op: "bulk insert", Err: err}
	}

	metrics.RecordSync("success", time.Since(start).Seconds(), deleted, inserted)
	log.Info().
		Str("partition", key.String()).
		Int64("deleted", deleted).
		Int64("inserted", inserted).
		Msg("Partition replaced")

	return deleted, inserted, nil
}

func (r *FixtureRepository) deletePartition(ctx context.Context, key models.PartitionKey) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE source_date >= $1 AND source_date <= $2 AND timezone_used = $3
	`, r.table)

	tag, err := r.db.Pool.Exec(ctx, query, key.StartDate, key.EndDate, key.Timezone)
	if err != nil {
		return 0, &ingest.PersistenceError{Op: "delete partition", Err: err}
	}

	return tag.RowsAffected(), nil
}

// QueryPartition reads back a partition's rows ordered by
// (tournament_name, event_time, event_key), bounded by limit.
func (r *FixtureRepository) QueryPartition(ctx context.Context, key models.PartitionKey, limit int) ([]models.StoredFixture, error) {
	if err := key.Validate(); err != nil {
		return nil, &ingest.ValidationError{Reason: err.Error()}
	}
	if limit <= 0 {
		return nil, &ingest.ValidationError{Reason: "limit must be positive"}
	}

	query := fmt.Sprintf(`
		SELECT event_key, event_date, event_time,
		       first_player, second_player,
		       tournament_name, event_type_type, event_status,
		       source_date, timezone_used, ingested_at
		FROM %s
		WHERE source_date >= $1 AND source_date <= $2 AND timezone_used = $3
		ORDER BY tournament_name, event_time, event_key
		LIMIT $4
	`, r.table)

	rows, err := r.db.Pool.Query(ctx, query, key.StartDate, key.EndDate, key.Timezone, limit)
	if err != nil {
		return nil, &ingest.PersistenceError{Op: "query partition", Err: err}
	}
	defer rows.Close()

	var fixtures []models.StoredFixture
	for rows.Next() {
		var f models.StoredFixture
		err := rows.Scan(
			&f.EventKey, &f.EventDate, &f.EventTime,
			&f.FirstPlayer, &f.SecondPlayer,
			&f.TournamentName, &f.EventTypeType, &f.EventStatus,
			&f.SourceDate, &f.TimezoneUsed, &f.IngestedAt,
		)
		if err != nil {
			return nil, &ingest.PersistenceError{Op: "scan fixture", Err: err}
		}
		fixtures = append(fixtures, f)
	}

	if err := rows.Err(); err != nil {
		return nil, &ingest.PersistenceError{Op: "iterate fixtures", Err: err}
	}

	log.Debug().
		Str("partition", key.String()).
		Int("count", len(fixtures)).
		Msg("Partition queried")

	return fixtures, nil
}

// CountPartition returns the number of stored rows in the partition.
func (r *FixtureRepository) CountPartition(ctx context.Context, key models.PartitionKey) (int, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s
		WHERE source_date >= $1 AND source_date <= $2 AND timezone_used = $3
	`, r.table)

	var count int
	err := r.db.Pool.QueryRow(ctx, query, key.StartDate, key.EndDate, key.Timezone).Scan(&count)
	if err != nil {
		return 0, &ingest.PersistenceError{Op: "count partition", Err: err}
	}

	return count, nil
}
