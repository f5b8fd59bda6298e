package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eatlog/internal/model"
)

func f(v float64) *float64 { return &v }

func TestFormatAverage(t *testing.T) {
	assert.Equal(t, "4", FormatAverage(model.Ratings{First: f(4)}))
	assert.Equal(t, "4", FormatAverage(model.Ratings{First: f(3), Second: f(5)}))
	assert.Equal(t, "3.75", FormatAverage(model.Ratings{First: f(3.5), Second: f(4)}))
	assert.Equal(t, "unrated", FormatAverage(model.Ratings{}))
}

func TestFormatRating(t *testing.T) {
	assert.Equal(t, "4.5/5", FormatRating(f(4.5)))
	assert.Equal(t, "3/5", FormatRating(f(3)))
	assert.Equal(t, "—", FormatRating(nil))
	assert.Equal(t, "★★★★☆", FormatRatingStars(f(4)))
}

func TestParseOptionalNumbers(t *testing.T) {
	require.NotNil(t, ParseOptionalFloat("$12.50"))
	assert.Equal(t, 12.5, *ParseOptionalFloat("$12.50"))
	assert.Nil(t, ParseOptionalFloat(""))
	assert.Nil(t, ParseOptionalFloat("about ten"))
	assert.Nil(t, ParseOptionalFloat("NaN"))

	require.NotNil(t, ParseOptionalInt(" 45 "))
	assert.Equal(t, 45, *ParseOptionalInt(" 45 "))
	assert.Nil(t, ParseOptionalInt("4.5"))
	assert.Nil(t, ParseOptionalInt("   "))
}

func TestParseDateInput(t *testing.T) {
	d, err := ParseDateInput("2024-03-09")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), *d)

	d, err = ParseDateInput("Mar 9, 2024")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09", d.Format(model.DateLayout))

	d, err = ParseDateInput("")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = ParseDateInput("yesterday-ish")
	assert.Error(t, err)
}

func TestFormatDateHuman(t *testing.T) {
	now := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) *time.Time {
		v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &v
	}
	assert.Equal(t, "Today", FormatDateHuman(day(2024, 6, 10), now))
	assert.Equal(t, "Yesterday", FormatDateHuman(day(2024, 6, 9), now))
	assert.Equal(t, "3d ago", FormatDateHuman(day(2024, 6, 7), now))
	assert.Equal(t, "Jan 02", FormatDateHuman(day(2024, 1, 2), now))
	assert.Equal(t, "Jan 02 '23", FormatDateHuman(day(2023, 1, 2), now))
	assert.Equal(t, "—", FormatDateHuman(nil, now))
}

func TestParseTagsAndLines(t *testing.T) {
	assert.Equal(t, []string{"date night", "spicy"}, ParseTags(" date night, ,spicy "))
	assert.Nil(t, ParseTags(""))
	assert.Equal(t, []string{"2 eggs", "1 cup flour"}, ParseLines("2 eggs\n\n 1 cup flour \n"))
	assert.Equal(t, []string{"pasta", "ricotta", "basil"}, ParseLines("pasta; ricotta;; basil"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "Thai Curry", TruncateString("Thai Curry", 12))
	assert.Equal(t, "Thai C...", TruncateString("Thai Curry House", 9))
	assert.Equal(t, "Th", TruncateString("Thai", 2))
}

func TestFormatMinutes(t *testing.T) {
	m := 95
	assert.Equal(t, "1h 35m", FormatMinutes(&m))
	m = 20
	assert.Equal(t, "20 min", FormatMinutes(&m))
	assert.Equal(t, "—", FormatMinutes(nil))
}
