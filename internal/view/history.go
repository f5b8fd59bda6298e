package view

import (
	"time"

	"eatlog/internal/model"
)

// DayGroup is one day of the history timeline.
type DayGroup struct {
	Date  time.Time
	Items []*model.Experience
}

// History groups dated experiences by visit day, newest day first.
// Wishlist items have no date and never appear.
func History(list []*model.Experience) []DayGroup {
	dated := make([]*model.Experience, 0, len(list))
	for _, e := range list {
		if e.Date != nil {
			dated = append(dated, e)
		}
	}
	Sort(dated, SortDate)

	var groups []DayGroup
	for _, e := range dated {
		if n := len(groups); n > 0 && groups[n-1].Date.Equal(*e.Date) {
			groups[n-1].Items = append(groups[n-1].Items, e)
			continue
		}
		groups = append(groups, DayGroup{Date: *e.Date, Items: []*model.Experience{e}})
	}
	return groups
}

// JumpTo returns the index of the first group on or before day, or -1 when
// every group is newer.
func JumpTo(groups []DayGroup, day time.Time) int {
	for i, g := range groups {
		if !g.Date.After(day) {
			return i
		}
	}
	return -1
}
