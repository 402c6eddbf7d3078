package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNewPartitionKey(t *testing.T) {
	key, err := NewPartitionKey("2024-01-01", "2024-01-03", "America/Monterrey")
	require.NoError(t, err)
	assert.Equal(t, day("2024-01-01"), key.StartDate)
	assert.Equal(t, day("2024-01-03"), key.EndDate)
	assert.Equal(t, "America/Monterrey", key.Timezone)

	_, err = NewPartitionKey("01/01/2024", "2024-01-03", "UTC")
	assert.Error(t, err)

	_, err = NewPartitionKey("2024-01-01", "bad", "UTC")
	assert.Error(t, err)
}

func TestPartitionKey_Validate(t *testing.T) {
	key := PartitionKey{StartDate: day("2024-01-03"), EndDate: day("2024-01-01"), Timezone: "UTC"}
	assert.Error(t, key.Validate(), "end before start should be rejected")

	key = PartitionKey{StartDate: day("2024-01-01"), EndDate: day("2024-01-01"), Timezone: ""}
	assert.Error(t, key.Validate(), "empty timezone should be rejected")

	key = PartitionKey{StartDate: day("2024-01-01"), EndDate: day("2024-01-01"), Timezone: "UTC"}
	assert.NoError(t, key.Validate(), "single-day range is valid")
}

func TestPartitionKey_Days(t *testing.T) {
	key := PartitionKey{StartDate: day("2024-01-01"), EndDate: day("2024-01-03"), Timezone: "UTC"}

	days := key.Days()
	require.Len(t, days, 3)
	assert.Equal(t, day("2024-01-01"), days[0])
	assert.Equal(t, day("2024-01-02"), days[1])
	assert.Equal(t, day("2024-01-03"), days[2])
	assert.Equal(t, 3, key.DayCount())

	single := PartitionKey{StartDate: day("2024-01-01"), EndDate: day("2024-01-01"), Timezone: "UTC"}
	assert.Len(t, single.Days(), 1)
	assert.Equal(t, 1, single.DayCount())
}

func TestPartitionKey_String(t *testing.T) {
	key := PartitionKey{StartDate: day("2024-01-01"), EndDate: day("2024-01-03"), Timezone: "UTC"}
	assert.Equal(t, "2024-01-01..2024-01-03/UTC", key.String())
}
