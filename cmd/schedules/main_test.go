package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateRange(t *testing.T) {
	now := time.Date(2024, time.June, 5, 17, 45, 0, 0, time.UTC)

	start, end, err := dateRange("", "", 30, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, time.July, 4, 0, 0, 0, 0, time.UTC), end, "30 dates including today")

	start, end, err = dateRange("2024-07-01", "", 7, now)
	require.NoError(t, err)
	assert.Equal(t, "2024-07-01", start.Format("2006-01-02"))
	assert.Equal(t, "2024-07-07", end.Format("2006-01-02"))

	_, end, err = dateRange("", "2024-06-30", 7, now)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-30", end.Format("2006-01-02"))

	_, _, err = dateRange("tomorrow", "", 7, now)
	assert.ErrorContains(t, err, "-start")

	_, _, err = dateRange("", "2024-13-01", 7, now)
	assert.ErrorContains(t, err, "-end")
}
