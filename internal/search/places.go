// Package search suggests previously visited places while a restaurant
// name is being typed.
package search

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"eatlog/internal/model"
)

const defaultLimit = 8

// PlaceSource lists places owned by a user whose name contains search.
type PlaceSource interface {
	ListPlaces(ctx context.Context, userID uuid.UUID, search string) ([]model.Place, error)
}

// Suggestion is one autocomplete result.
type Suggestion struct {
	PlaceID    uuid.UUID
	Name       string
	Cuisine    string
	PriceRange model.PriceRange
	Address    string
}

// PlaceSearch ranks a user's places against a partial name.
type PlaceSearch struct {
	source PlaceSource
	userID uuid.UUID
	limit  int
}

// NewPlaceSearch creates a place search for userID. limit <= 0 uses the default.
func NewPlaceSearch(source PlaceSource, userID uuid.UUID, limit int) *PlaceSearch {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &PlaceSearch{source: source, userID: userID, limit: limit}
}

// Autocomplete returns places matching query. Names starting with the query
// rank before names that merely contain it; ties keep alphabetical order.
func (s *PlaceSearch) Autocomplete(ctx context.Context, query string) ([]Suggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Suggestion{}, nil
	}

	places, err := s.source.ListPlaces(ctx, s.userID, query)
	if err != nil {
		return nil, fmt.Errorf("place search: %w", err)
	}

	q := strings.ToLower(query)
	slices.SortStableFunc(places, func(a, b model.Place) int {
		return rank(a.Name, q) - rank(b.Name, q)
	})

	suggestions := make([]Suggestion, 0, min(len(places), s.limit))
	for _, p := range places {
		if len(suggestions) == s.limit {
			break
		}
		suggestions = append(suggestions, Suggestion{
			PlaceID:    p.ID,
			Name:       p.Name,
			Cuisine:    p.Cuisine,
			PriceRange: p.PriceRange,
			Address:    p.Address,
		})
	}
	return suggestions, nil
}

func rank(name, query string) int {
	n := strings.ToLower(name)
	switch {
	case n == query:
		return 0
	case strings.HasPrefix(n, query):
		return 1
	default:
		return 2
	}
}
