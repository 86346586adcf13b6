package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCronSchedule(t *testing.T) {
	tests := []struct {
		schedule string
		valid    bool
	}{
		{"0 4 * * *", true},
		{"*/15 * * * *", true},
		{"0 4 * * 1", true},
		{"invalid", false},
		{"* * * *", false},
		{"60 * * * *", false},
		{"0 25 * * *", false},
	}

	for _, tt := range tests {
		t.Run(tt.schedule, func(t *testing.T) {
			err := ValidateCronSchedule(tt.schedule)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestGetCronDescription(t *testing.T) {
	assert.Equal(t, "Daily at 04:00", GetCronDescription("0 4 * * *"))
	assert.Equal(t, "Custom schedule: 5 4 * * *", GetCronDescription("5 4 * * *"))
}

func TestGetNextRunTime(t *testing.T) {
	from := time.Date(2024, 7, 1, 5, 0, 0, 0, time.UTC)
	next, err := GetNextRunTime("0 4 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 2, 4, 0, 0, 0, time.UTC), *next)

	_, err = GetNextRunTime("invalid", from)
	assert.Error(t, err)
}
