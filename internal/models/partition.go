package models

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for dates on the upstream API and in the
// warehouse source_date column.
const DateLayout = "2006-01-02"

// PartitionKey identifies the scope of one delete-then-insert replace:
// the stored rows whose (source_date, timezone_used) fall inside the
// inclusive date range with the matching timezone.
type PartitionKey struct {
	StartDate time.Time
	EndDate   time.Time
	Timezone  string
}

// NewPartitionKey builds a key from YYYY-MM-DD date strings.
func NewPartitionKey(start, end, timezone string) (PartitionKey, error) {
	startDate, err := time.Parse(DateLayout, start)
	if err != nil {
		return PartitionKey{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	endDate, err := time.Parse(DateLayout, end)
	if err != nil {
		return PartitionKey{}, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	return PartitionKey{StartDate: startDate, EndDate: endDate, Timezone: timezone}, nil
}

// Validate checks the key's preconditions: end >= start and a timezone.
func (k PartitionKey) Validate() error {
	if k.EndDate.Before(k.StartDate) {
		return fmt.Errorf("end date %s is before start date %s",
			k.EndDate.Format(DateLayout), k.StartDate.Format(DateLayout))
	}
	if k.Timezone == "" {
		return fmt.Errorf("timezone is required")
	}
	return nil
}

// Days returns every calendar day in the range, ascending and inclusive.
func (k PartitionKey) Days() []time.Time {
	var days []time.Time
	for d := k.StartDate; !d.After(k.EndDate); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// DayCount returns the number of days in the range.
func (k PartitionKey) DayCount() int {
	return int(k.EndDate.Sub(k.StartDate).Hours()/24) + 1
}

// String renders the key for logs.
func (k PartitionKey) String() string {
	return fmt.Sprintf("%s..%s/%s",
		k.StartDate.Format(DateLayout), k.EndDate.Format(DateLayout), k.Timezone)
}
