// Command loader is the operator CLI for loading tennis fixtures: fetch a
// date range from the API (or load an exported JSON envelope as a fallback),
// preview the normalized rows, replace the matching warehouse partition, and
// query it back.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"tennisdata/ingestion/internal/client"
	"tennisdata/ingestion/internal/config"
	"tennisdata/ingestion/internal/models"
	"tennisdata/ingestion/internal/pipeline"
	"tennisdata/ingestion/internal/repository"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		startFlag = flag.String("start", "", "start date (YYYY-MM-DD, default today)")
		endFlag   = flag.String("end", "", "end date (YYYY-MM-DD, default start)")
		tzFlag    = flag.String("tz", "", "IANA timezone (default from config)")
		fileFlag  = flag.String("file", "", "load a JSON envelope file instead of calling the API")
		saveFlag  = flag.Bool("save", false, "replace the warehouse partition with the fetched rows")
		limitFlag = flag.Int("limit", 100, "row limit when querying the partition back")
		csvFlag   = flag.String("csv", "", "write the normalized rows to this CSV file")
		previewN  = flag.Int("preview", 10, "number of rows to print as preview")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx := context.Background()
	cfg := config.MustLoad()

	timezone := *tzFlag
	if timezone == "" {
		timezone = cfg.DefaultTimezone
	}

	key, err := buildKey(*startFlag, *endFlag, timezone)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid date range")
	}

	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:          cfg.DatabaseHost,
		Port:          strconv.Itoa(cfg.DatabasePort),
		User:          cfg.DatabaseUser,
		Password:      cfg.DatabasePassword,
		Database:      cfg.DatabaseName,
		SSLMode:       cfg.DatabaseSSLMode,
		FixturesTable: cfg.FixturesTable,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Fixtures.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure fixtures schema")
	}

	apiClient := client.NewClient(cfg.TennisBaseURL, cfg.TennisAPIKey, cfg.TennisTimeout)
	pipe := pipeline.New(apiClient, nil, db.Fixtures)

	// Fetch from the API, or fall back to an uploaded envelope file.
	var result pipeline.Result
	if *fileFlag != "" {
		f, err := os.Open(*fileFlag)
		if err != nil {
			log.Fatal().Err(err).Str("file", *fileFlag).Msg("Failed to open envelope file")
		}
		result, err = pipe.LoadEnvelope(f)
		f.Close()
		if err != nil {
			log.Fatal().Err(err).Str("file", *fileFlag).Msg("Failed to load envelope file")
		}
	} else {
		result, err = pipe.FetchRange(ctx, key)
		if err != nil {
			log.Fatal().Err(err).Str("range", key.String()).Msg("Range fetch rejected")
		}
	}

	printResult(key, result, *previewN)

	if *csvFlag != "" {
		if err := writeCSVFile(*csvFlag, result.Records); err != nil {
			log.Fatal().Err(err).Str("file", *csvFlag).Msg("Failed to write CSV")
		}
		log.Info().Str("file", *csvFlag).Int("rows", len(result.Records)).Msg("CSV written")
	}

	if !*saveFlag {
		return
	}

	deleted, inserted, err := pipe.Save(ctx, key, result)
	if err != nil {
		log.Fatal().Err(err).Str("range", key.String()).Msg("Failed to replace partition")
	}
	log.Info().
		Str("range", key.String()).
		Int64("deleted", deleted).
		Int64("inserted", inserted).
		Msg("Partition replaced")

	stored, err := pipe.Query(ctx, key, *limitFlag)
	if err != nil {
		log.Fatal().Err(err).Str("range", key.String()).Msg("Failed to query partition back")
	}
	fmt.Printf("\nStored rows in %s (limit %d): %d\n", key.String(), *limitFlag, len(stored))
	for i, row := range stored {
		if i >= *previewN {
			fmt.Printf("... and %d more\n", len(stored)-*previewN)
			break
		}
		fmt.Printf("  %-12s %s %s  %s vs %s  [%s]\n",
			row.EventKey, row.EventDate, row.EventTime,
			row.FirstPlayer, row.SecondPlayer, row.TournamentName)
	}
}

// buildKey assembles the partition key from CLI flags. Empty start means
// today; empty end means the start date (single-day range).
func buildKey(start, end, timezone string) (models.PartitionKey, error) {
	if start == "" {
		start = time.Now().Format(models.DateLayout)
	}
	if end == "" {
		end = start
	}
	key, err := models.NewPartitionKey(start, end, timezone)
	if err != nil {
		return models.PartitionKey{}, err
	}
	if err := key.Validate(); err != nil {
		return models.PartitionKey{}, err
	}
	return key, nil
}

func printResult(key models.PartitionKey, result pipeline.Result, previewN int) {
	fmt.Printf("Fetched %d fixtures for %s\n", len(result.Records), key.String())

	for i := range result.Records {
		if i >= previewN {
			fmt.Printf("... and %d more\n", len(result.Records)-previewN)
			break
		}
		rec := &result.Records[i]
		fmt.Printf("  %-12s %s %s  %s vs %s  [%s]\n",
			rec.EventKey, rec.EventDate, rec.EventTime,
			rec.FirstPlayer, rec.SecondPlayer, rec.TournamentName)
	}

	if len(result.DayErrors) > 0 {
		fmt.Printf("\n%d day(s) failed:\n", len(result.DayErrors))
		for _, dayErr := range result.DayErrors {
			fmt.Printf("  %s\n", dayErr.Error())
		}
	}
}

func writeCSVFile(path string, records []models.FixtureRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return pipeline.WriteCSV(f, records)
}
