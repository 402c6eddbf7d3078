package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// FixtureRecord is the normalized flat row written to the warehouse.
// Every field is a plain string; absent upstream values normalize to "".
type FixtureRecord struct {
	EventKey       string `json:"event_key"`
	EventDate      string `json:"event_date"`
	EventTime      string `json:"event_time"`
	FirstPlayer    string `json:"first_player"`
	SecondPlayer   string `json:"second_player"`
	TournamentName string `json:"tournament_name"`
	EventTypeType  string `json:"event_type_type"`
	EventStatus    string `json:"event_status"`
}

// StoredFixture is a FixtureRecord as persisted, stamped with its partition
// coordinates. IngestedAt is assigned by the database at insert time.
type StoredFixture struct {
	FixtureRecord
	SourceDate   time.Time `db:"source_date"`
	TimezoneUsed string    `db:"timezone_used"`
	IngestedAt   time.Time `db:"ingested_at"`
}

// KeyString unmarshals a JSON string or number into its string form.
// The upstream API is inconsistent about whether keys are quoted.
type KeyString string

// UnmarshalJSON implements json.Unmarshaler.
func (k *KeyString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*k = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*k = KeyString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*k = KeyString(n.String())
	return nil
}

// FixtureInput is a single raw record from the upstream fixtures response.
// Unknown fields are ignored by the decoder.
type FixtureInput struct {
	EventKey       KeyString `json:"event_key"`
	MatchKey       KeyString `json:"match_key"`
	EventDate      string    `json:"event_date"`
	EventTime      string    `json:"event_time"`
	FirstPlayer    string    `json:"event_first_player"`
	SecondPlayer   string    `json:"event_second_player"`
	TournamentName string    `json:"tournament_name"`
	EventTypeType  string    `json:"event_type_type"`
	EventStatus    string    `json:"event_status"`
}

// Normalize converts a raw upstream record into a FixtureRecord.
// The identifier prefers event_key, falls back to match_key, else "".
func (fi *FixtureInput) Normalize() FixtureRecord {
	key := string(fi.EventKey)
	if key == "" {
		key = string(fi.MatchKey)
	}
	return FixtureRecord{
		EventKey:       key,
		EventDate:      fi.EventDate,
		EventTime:      fi.EventTime,
		FirstPlayer:    fi.FirstPlayer,
		SecondPlayer:   fi.SecondPlayer,
		TournamentName: fi.TournamentName,
		EventTypeType:  fi.EventTypeType,
		EventStatus:    fi.EventStatus,
	}
}

// NormalizeAll normalizes a slice of raw records. A nil or empty input yields
// an empty (non-nil) slice; normalization never fails.
func NormalizeAll(inputs []FixtureInput) []FixtureRecord {
	records := make([]FixtureRecord, 0, len(inputs))
	for i := range inputs {
		records = append(records, inputs[i].Normalize())
	}
	return records
}

// ParsedEventDate parses the record's event_date as YYYY-MM-DD.
// Returns false when the field is empty or not in that layout.
func (r *FixtureRecord) ParsedEventDate() (time.Time, bool) {
	if r.EventDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", r.EventDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Envelope is the upstream response wrapper. Success is 1 on a good response;
// anything else is a reported, non-fatal condition carrying Message.
type Envelope struct {
	Success int            `json:"success"`
	Result  []FixtureInput `json:"result"`
	Message string         `json:"message,omitempty"`
}

// OK reports whether the envelope carries a successful payload.
func (e *Envelope) OK() bool {
	return e.Success == 1
}

// ErrorMessage returns the upstream message, or a generic one including the
// success flag when upstream supplied none.
func (e *Envelope) ErrorMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return "upstream returned success=" + strconv.Itoa(e.Success)
}
