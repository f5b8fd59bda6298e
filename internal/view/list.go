package view

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"eatlog/internal/model"
)

// SortKey selects the list ordering.
type SortKey string

const (
	SortDate   SortKey = "date"
	SortName   SortKey = "name"
	SortRating SortKey = "rating"
)

// SortKeys lists the sort keys in cycling order.
var SortKeys = []SortKey{SortDate, SortName, SortRating}

// ParseSortKey accepts "date", "name" or "rating"; empty means date.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortDate, nil
	case SortDate, SortName, SortRating:
		return k, nil
	default:
		return "", fmt.Errorf("unknown sort %q (want date, name or rating)", s)
	}
}

// Next returns the following key in SortKeys.
func (k SortKey) Next() SortKey {
	i := slices.Index(SortKeys, k)
	return SortKeys[(i+1)%len(SortKeys)]
}

// Filter narrows the loaded collection. Zero values match everything.
type Filter struct {
	Type          model.ExperienceType // "" means all types
	Query         string
	FavoritesOnly bool
	Tags          []string   // every listed tag must be present
	From, To      *time.Time // inclusive bounds on the visit date
}

// Active reports whether any criterion is set.
func (f Filter) Active() bool {
	return f.Type != "" || strings.TrimSpace(f.Query) != "" || f.FavoritesOnly ||
		len(f.Tags) > 0 || f.From != nil || f.To != nil
}

// Matches reports whether e passes every criterion of f.
func (f Filter) Matches(e *model.Experience) bool {
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.FavoritesOnly && !e.Favorite {
		return false
	}
	for _, want := range f.Tags {
		if !hasTag(e, want) {
			return false
		}
	}
	if f.From != nil || f.To != nil {
		if e.Date == nil {
			return false
		}
		if f.From != nil && e.Date.Before(*f.From) {
			return false
		}
		if f.To != nil && e.Date.After(*f.To) {
			return false
		}
	}
	return matchesQuery(e, f.Query)
}

func hasTag(e *model.Experience, want string) bool {
	for _, t := range e.Tags {
		if strings.EqualFold(t, strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

func matchesQuery(e *model.Experience, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	fields := []string{e.Name, e.Notes}
	if e.Place != nil {
		fields = append(fields, e.Place.Name)
	}
	fields = append(fields, e.Tags...)
	for _, s := range fields {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

// Apply filters list and sorts the result. The input slice is not modified
// and equal keys keep their input order.
func Apply(list []*model.Experience, f Filter, key SortKey) []*model.Experience {
	out := make([]*model.Experience, 0, len(list))
	for _, e := range list {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	Sort(out, key)
	return out
}

// Sort orders list in place by key using a stable sort.
func Sort(list []*model.Experience, key SortKey) {
	switch key {
	case SortName:
		slices.SortStableFunc(list, func(a, b *model.Experience) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	case SortRating:
		slices.SortStableFunc(list, func(a, b *model.Experience) int {
			ra, _ := AverageRating(a)
			rb, _ := AverageRating(b)
			switch {
			case ra > rb:
				return -1
			case ra < rb:
				return 1
			default:
				return 0
			}
		})
	default:
		slices.SortStableFunc(list, func(a, b *model.Experience) int {
			return SortTime(b).Compare(SortTime(a))
		})
	}
}

// Tags returns every distinct tag in list, sorted.
func Tags(list []*model.Experience) []string {
	seen := map[string]bool{}
	var tags []string
	for _, e := range list {
		for _, t := range e.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	slices.Sort(tags)
	return tags
}
