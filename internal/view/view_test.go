package view

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eatlog/internal/config"
	"eatlog/internal/model"
)

func f(v float64) *float64 { return &v }

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func restaurant(name string, date *time.Time, r model.Ratings) *model.Experience {
	return &model.Experience{
		ID:        uuid.New(),
		Type:      model.TypeRestaurant,
		Name:      name,
		Date:      date,
		CreatedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Details:   &model.RestaurantDetails{Ratings: r},
	}
}

func names(list []*model.Experience) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.Name
	}
	return out
}

func TestAverageRating(t *testing.T) {
	tests := []struct {
		name   string
		r      model.Ratings
		want   float64
		wantOK bool
	}{
		{"single rating", model.Ratings{First: f(4)}, 4, true},
		{"unrated", model.Ratings{}, 0, false},
		{"both", model.Ratings{First: f(3), Second: f(5)}, 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AverageRating(restaurant("x", day(2024, 1, 1), tt.r))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	wish := &model.Experience{Type: model.TypeWishlist, Details: model.EmptyDetails(model.TypeWishlist)}
	_, ok := AverageRating(wish)
	assert.False(t, ok)
}

func TestFeaturedPhoto(t *testing.T) {
	_, ok := FeaturedPhoto(nil)
	assert.False(t, ok)

	photos := []model.Photo{
		{StoragePath: "b", SortOrder: 1},
		{StoragePath: "a", SortOrder: 0},
		{StoragePath: "c", SortOrder: 2},
	}
	p, ok := FeaturedPhoto(photos)
	require.True(t, ok)
	assert.Equal(t, "a", p.StoragePath, "lowest sort order when none flagged")

	photos[2].Featured = true
	p, _ = FeaturedPhoto(photos)
	assert.Equal(t, "c", p.StoragePath)
}

func TestFeaturedPhotoURL(t *testing.T) {
	url := func(p string) string { return "https://cdn/" + p }
	e := restaurant("x", day(2024, 1, 1), model.Ratings{})
	assert.Equal(t, "/images/placeholder.jpg", FeaturedPhotoURL(e, url, "/images/placeholder.jpg"))

	e.Photos = []model.Photo{{StoragePath: "u/e/p.jpg", Featured: true}}
	assert.Equal(t, "https://cdn/u/e/p.jpg", FeaturedPhotoURL(e, url, "/images/placeholder.jpg"))
}

func TestDisplayName(t *testing.T) {
	e := restaurant("Cached", day(2024, 1, 1), model.Ratings{})
	assert.Equal(t, "Cached", DisplayName(e))

	e.Place = &model.Place{Name: "  "}
	assert.Equal(t, "Cached", DisplayName(e))

	e.Place.Name = "Lotus Garden"
	assert.Equal(t, "Lotus Garden", DisplayName(e))
}

func TestRatingRows(t *testing.T) {
	e := restaurant("x", day(2024, 1, 1), model.Ratings{Second: f(3.5)})
	e.CreatedBy = model.DinerSecond
	diners := config.DinersConfig{First: "Brett", Second: "Jean"}

	rows := RatingRows(e, diners)
	require.Len(t, rows, 2)
	assert.Equal(t, "Brett", rows[0].Label)
	assert.Nil(t, rows[0].Value)
	assert.Equal(t, 3.5, *rows[1].Value)
	assert.Equal(t, "Jean", CreatedByName(e, diners))
}

func TestApply_SearchIsCaseInsensitive(t *testing.T) {
	list := []*model.Experience{
		restaurant("Thai Curry", day(2024, 1, 2), model.Ratings{}),
		restaurant("Pizza Night", day(2024, 1, 3), model.Ratings{}),
	}

	got := Apply(list, Filter{Query: "curry"}, SortDate)
	assert.Equal(t, []string{"Thai Curry"}, names(got))

	got = Apply(list, Filter{Query: "CURRY"}, SortDate)
	assert.Equal(t, []string{"Thai Curry"}, names(got))
}

func TestApply_SearchCoversPlaceNotesAndTags(t *testing.T) {
	a := restaurant("Dinner", day(2024, 1, 1), model.Ratings{})
	a.Place = &model.Place{Name: "Curry House"}
	b := restaurant("Lunch", day(2024, 1, 1), model.Ratings{})
	b.Notes = "the curry was mild"
	c := restaurant("Snack", day(2024, 1, 1), model.Ratings{})
	c.Tags = []string{"curry"}
	d := restaurant("Other", day(2024, 1, 1), model.Ratings{})

	got := Apply([]*model.Experience{a, b, c, d}, Filter{Query: "Curry"}, SortName)
	assert.Equal(t, []string{"Dinner", "Lunch", "Snack"}, names(got))
}

func TestApply_TypeFavoritesTagsAndDates(t *testing.T) {
	a := restaurant("A", day(2024, 3, 1), model.Ratings{})
	a.Favorite = true
	a.Tags = []string{"brunch", "outdoor"}
	b := restaurant("B", day(2024, 5, 1), model.Ratings{})
	b.Tags = []string{"brunch"}
	w := &model.Experience{Type: model.TypeWishlist, Name: "W", Favorite: true}

	all := []*model.Experience{a, b, w}

	assert.Equal(t, []string{"W"}, names(Apply(all, Filter{Type: model.TypeWishlist}, SortName)))
	assert.Equal(t, []string{"A", "W"}, names(Apply(all, Filter{FavoritesOnly: true}, SortName)))
	assert.Equal(t, []string{"A"}, names(Apply(all, Filter{Tags: []string{"Brunch", "outdoor"}}, SortName)))
	assert.Equal(t, []string{"B"}, names(Apply(all, Filter{From: day(2024, 4, 1)}, SortName)))
	assert.Equal(t, []string{"A"}, names(Apply(all, Filter{To: day(2024, 3, 1)}, SortName)))

	assert.False(t, Filter{}.Active())
	assert.True(t, Filter{Tags: []string{"x"}}.Active())
}

func TestSort_ByName(t *testing.T) {
	list := []*model.Experience{
		restaurant("pho", nil, model.Ratings{}),
		restaurant("Bagels", nil, model.Ratings{}),
		restaurant("Arepas", nil, model.Ratings{}),
	}
	assert.Equal(t, []string{"Arepas", "Bagels", "pho"}, names(Apply(list, Filter{}, SortName)))
}

func TestSort_ByDateFallsBackToCreatedAt(t *testing.T) {
	old := restaurant("old", day(2023, 6, 1), model.Ratings{})
	recent := restaurant("recent", day(2024, 6, 1), model.Ratings{})
	wish := &model.Experience{Type: model.TypeWishlist, Name: "wish", CreatedAt: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)}

	got := Apply([]*model.Experience{old, wish, recent}, Filter{}, SortDate)
	assert.Equal(t, []string{"recent", "wish", "old"}, names(got))
}

func TestSort_ByRatingIsStable(t *testing.T) {
	list := []*model.Experience{
		restaurant("none", day(2024, 1, 1), model.Ratings{}),
		restaurant("three", day(2024, 1, 1), model.Ratings{First: f(3)}),
		restaurant("four-a", day(2024, 1, 1), model.Ratings{First: f(3), Second: f(5)}),
		restaurant("four-b", day(2024, 1, 1), model.Ratings{Second: f(4)}),
	}
	got := Apply(list, Filter{}, SortRating)
	assert.Equal(t, []string{"four-a", "four-b", "three", "none"}, names(got))
	assert.Equal(t, "none", list[0].Name, "input is not reordered")
}

func TestParseSortKey(t *testing.T) {
	k, err := ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, SortDate, k)

	k, err = ParseSortKey(" Rating ")
	require.NoError(t, err)
	assert.Equal(t, SortRating, k)

	_, err = ParseSortKey("price")
	assert.Error(t, err)

	assert.Equal(t, SortName, SortDate.Next())
	assert.Equal(t, SortDate, SortRating.Next())
}

func TestHistory(t *testing.T) {
	a := restaurant("a", day(2024, 5, 1), model.Ratings{})
	b := restaurant("b", day(2024, 5, 3), model.Ratings{})
	c := restaurant("c", day(2024, 5, 1), model.Ratings{})
	w := &model.Experience{Type: model.TypeWishlist, Name: "w"}

	groups := History([]*model.Experience{a, w, b, c})
	require.Len(t, groups, 2)
	assert.Equal(t, *day(2024, 5, 3), groups[0].Date)
	assert.Equal(t, []string{"b"}, names(groups[0].Items))
	assert.Equal(t, []string{"a", "c"}, names(groups[1].Items))

	assert.Equal(t, 1, JumpTo(groups, *day(2024, 5, 2)))
	assert.Equal(t, 0, JumpTo(groups, *day(2024, 6, 1)))
	assert.Equal(t, -1, JumpTo(groups, *day(2024, 4, 1)))
}

func TestTags(t *testing.T) {
	a := restaurant("a", nil, model.Ratings{})
	a.Tags = []string{"spicy", "brunch"}
	b := restaurant("b", nil, model.Ratings{})
	b.Tags = []string{"brunch"}
	assert.Equal(t, []string{"brunch", "spicy"}, Tags([]*model.Experience{a, b}))
}
