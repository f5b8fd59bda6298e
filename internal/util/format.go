package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"eatlog/internal/model"
)

// FormatDate formats an experience date for display.
func FormatDate(date *time.Time) string {
	if date == nil {
		return "No date"
	}
	return date.Format("Jan 02, 2006")
}

// FormatDateHuman formats a date with humanized relative display.
// "Today", "Yesterday", "3d ago", "Jan 15", "Jan 15 '24"
func FormatDateHuman(date *time.Time, now time.Time) string {
	if date == nil {
		return "—"
	}
	t := *date
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dateDay := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

	days := int(today.Sub(dateDay).Hours() / 24)

	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days > 1 && days < 7:
		return fmt.Sprintf("%dd ago", days)
	case t.Year() == now.Year():
		return t.Format("Jan 02")
	default:
		return t.Format("Jan 02 '06")
	}
}

// FormatRating formats a single rating as "4.5/5" or "—" if nil.
func FormatRating(rating *float64) string {
	if rating == nil {
		return "—"
	}
	return formatRatingNumber(*rating) + "/5"
}

// FormatRatingWithStar formats a rating as "4.5 ★" for display.
func FormatRatingWithStar(rating *float64) string {
	if rating == nil {
		return "—"
	}
	return formatRatingNumber(*rating) + " ★"
}

// FormatRatingStars formats a rating as stars (e.g., "★★★★☆"), rounding half points up.
func FormatRatingStars(rating *float64) string {
	if rating == nil {
		return "—"
	}
	stars := int(math.Round(*rating))
	if stars < 0 {
		stars = 0
	}
	if stars > 5 {
		stars = 5
	}
	return strings.Repeat("★", stars) + strings.Repeat("☆", 5-stars)
}

// FormatAverage formats the average of two per-diner ratings.
// An experience nobody rated is "unrated", never "0".
func FormatAverage(r model.Ratings) string {
	avg, ok := r.Average()
	if !ok {
		return "unrated"
	}
	return trimAverage(avg)
}

func trimAverage(avg float64) string {
	s := strconv.FormatFloat(avg, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// FormatCost formats a monetary amount, "—" if nil.
func FormatCost(cost *float64) string {
	if cost == nil {
		return "—"
	}
	return fmt.Sprintf("$%.2f", *cost)
}

// FormatMinutes formats a cook time, "—" if nil.
func FormatMinutes(minutes *int) string {
	if minutes == nil {
		return "—"
	}
	if *minutes >= 60 {
		return fmt.Sprintf("%dh %02dm", *minutes/60, *minutes%60)
	}
	return fmt.Sprintf("%d min", *minutes)
}

// Today returns today's date in loc as a UTC midnight value.
func Today(loc *time.Location) time.Time {
	now := time.Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func formatRatingNumber(v float64) string {
	// Keep one decimal at most, but avoid trailing .0 for whole values.
	s := strconv.FormatFloat(v, 'f', 1, 64)
	s = strings.TrimSuffix(s, ".0")
	return s
}

// ParseDateInput parses flexible user input and normalizes it to a UTC date.
// Empty input is allowed and returns nil.
func ParseDateInput(input string) (*time.Time, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, nil
	}

	layouts := []string{
		model.DateLayout,
		"January 2, 2006",
		"Jan 2, 2006",
		"1/2/2006",
		"01/02/2006",
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d, nil
		}
	}

	return nil, fmt.Errorf("invalid date format")
}

// ParseOptionalFloat parses form text into a number. Empty or unparseable
// input yields nil rather than an error.
func ParseOptionalFloat(input string) *float64 {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), "$"))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ParseOptionalInt parses form text into an integer with the same rules as ParseOptionalFloat.
func ParseOptionalInt(input string) *int {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

// ParseTags splits comma-separated tags, trimming blanks.
func ParseTags(input string) []string {
	var tags []string
	for _, part := range strings.Split(input, ",") {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// ParseLines splits text on newlines or semicolons into trimmed non-empty lines.
func ParseLines(input string) []string {
	var lines []string
	split := func(r rune) bool { return r == '\n' || r == ';' }
	for _, line := range strings.FieldsFunc(input, split) {
		if l := strings.TrimSpace(line); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// TruncateString truncates a string to maxLen and adds "..." if needed.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
