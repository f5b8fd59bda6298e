// Package view derives display fields from composed experiences and filters,
// sorts and groups the loaded collection in memory.
package view

import (
	"strings"
	"time"

	"eatlog/internal/config"
	"eatlog/internal/model"
)

// FeaturedPhoto returns the flagged photo, else the photo with the lowest
// sort order. ok is false when there are no photos.
func FeaturedPhoto(photos []model.Photo) (model.Photo, bool) {
	if len(photos) == 0 {
		return model.Photo{}, false
	}
	first := photos[0]
	for _, p := range photos {
		if p.Featured {
			return p, true
		}
		if p.SortOrder < first.SortOrder {
			first = p
		}
	}
	return first, true
}

// FeaturedPhotoURL resolves the cover image of an experience, falling back
// to placeholder when it has no photos.
func FeaturedPhotoURL(e *model.Experience, publicURL func(path string) string, placeholder string) string {
	p, ok := FeaturedPhoto(e.Photos)
	if !ok {
		return placeholder
	}
	return publicURL(p.StoragePath)
}

// AverageRating is the mean of the present per-diner ratings.
// ok is false when nobody rated, which is distinct from a zero rating.
func AverageRating(e *model.Experience) (float64, bool) {
	return e.Ratings().Average()
}

// DisplayName prefers the attached place's name over the cached experience name.
func DisplayName(e *model.Experience) string {
	if e.Place != nil && strings.TrimSpace(e.Place.Name) != "" {
		return e.Place.Name
	}
	return e.Name
}

// SortTime is the date-sort key: the visit date when present, else creation time.
func SortTime(e *model.Experience) time.Time {
	if e.Date != nil {
		return *e.Date
	}
	return e.CreatedAt
}

// RatingRow is one labelled per-diner rating.
type RatingRow struct {
	Diner model.Diner
	Label string
	Value *float64
}

// RatingRows labels both ratings of an experience with the configured diner names.
func RatingRows(e *model.Experience, diners config.DinersConfig) []RatingRow {
	r := e.Ratings()
	return []RatingRow{
		{Diner: model.DinerFirst, Label: diners.First, Value: r.First},
		{Diner: model.DinerSecond, Label: diners.Second, Value: r.Second},
	}
}

// CreatedByName returns the configured name of the diner who logged e.
func CreatedByName(e *model.Experience, diners config.DinersConfig) string {
	return diners.Name(e.CreatedBy)
}
