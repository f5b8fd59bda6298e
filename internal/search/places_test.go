package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eatlog/internal/model"
)

type fakePlaces struct {
	places []model.Place
	err    error
}

func (f fakePlaces) ListPlaces(_ context.Context, _ uuid.UUID, search string) ([]model.Place, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Place
	for _, p := range f.places {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestAutocomplete_PrefixRanksFirst(t *testing.T) {
	src := fakePlaces{places: []model.Place{
		{Name: "Bangkok Thai"},
		{Name: "Thai Curry House", Cuisine: "Thai"},
		{Name: "Thai"},
	}}
	s := NewPlaceSearch(src, uuid.New(), 0)

	got, err := s.Autocomplete(context.Background(), "thai")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Thai", got[0].Name)
	assert.Equal(t, "Thai Curry House", got[1].Name)
	assert.Equal(t, "Thai", got[1].Cuisine)
	assert.Equal(t, "Bangkok Thai", got[2].Name)
}

func TestAutocomplete_LimitAndEmptyQuery(t *testing.T) {
	src := fakePlaces{places: []model.Place{{Name: "Pho 1"}, {Name: "Pho 2"}, {Name: "Pho 3"}}}
	s := NewPlaceSearch(src, uuid.New(), 2)

	got, err := s.Autocomplete(context.Background(), "pho")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.Autocomplete(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAutocomplete_SourceError(t *testing.T) {
	s := NewPlaceSearch(fakePlaces{err: errors.New("database is locked")}, uuid.New(), 0)
	_, err := s.Autocomplete(context.Background(), "pho")
	assert.ErrorContains(t, err, "database is locked")
}
