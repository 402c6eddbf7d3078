package ingest

import (
	"fmt"
	"time"
)

// The pipeline distinguishes error kinds so callers can tell a bad operator
// input from upstream flakiness or a warehouse failure without matching on
// message text. No error in this taxonomy is retried automatically; every
// failure is terminal for the triggering action.

// ValidationError is a malformed caller input (bad date range, missing key).
// The operation it guards is never attempted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// NetworkError is a transport or HTTP failure against the upstream API.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UpstreamError means the envelope parsed but upstream flagged failure
// (success != 1).
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string {
	return "upstream: " + e.Message
}

// MalformedPayloadError means an uploaded or pasted payload failed to parse
// or lacked the expected envelope shape.
type MalformedPayloadError struct {
	Err error
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed payload: %v", e.Err)
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }

// PersistenceError is a failure during the delete or insert against the
// destination table. The operator retries the whole save manually.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// DayError records one failed day inside a range fetch. A day failure never
// aborts the remaining days.
type DayError struct {
	Day time.Time
	Err error
}

func (e DayError) Error() string {
	return fmt.Sprintf("%s: %v", e.Day.Format("2006-01-02"), e.Err)
}

func (e DayError) Unwrap() error { return e.Err }
