package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestRatingsAverage(t *testing.T) {
	tests := []struct {
		name    string
		ratings Ratings
		want    float64
		wantOK  bool
	}{
		{"both present", Ratings{First: ptr(3), Second: ptr(5)}, 4, true},
		{"first only", Ratings{First: ptr(4)}, 4, true},
		{"second only", Ratings{Second: ptr(2.5)}, 2.5, true},
		{"unrated", Ratings{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.ratings.Average()
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestValidRating(t *testing.T) {
	for _, v := range []float64{1, 1.5, 3, 4.5, 5} {
		assert.True(t, ValidRating(v), "rating %v", v)
	}
	for _, v := range []float64{0, 0.5, 1.25, 5.5, 6, -1} {
		assert.False(t, ValidRating(v), "rating %v", v)
	}
}

func TestParseExperienceType(t *testing.T) {
	got, err := ParseExperienceType("Home Meal")
	require.NoError(t, err)
	assert.Equal(t, TypeHomeMeal, got)

	got, err = ParseExperienceType("home-meal")
	require.NoError(t, err)
	assert.Equal(t, TypeHomeMeal, got)

	_, err = ParseExperienceType("takeout")
	assert.Error(t, err)
}

func TestNormalizeCuisine(t *testing.T) {
	assert.Equal(t, "Thai", NormalizeCuisine("  thai "))
	assert.Equal(t, "Middle Eastern", NormalizeCuisine("middle eastern"))
	assert.Equal(t, "Ethiopian", NormalizeCuisine("Ethiopian"))
}

func TestExperienceRatingsFollowsDetails(t *testing.T) {
	e := &Experience{Type: TypeRestaurant, Details: &RestaurantDetails{Ratings: Ratings{First: ptr(4)}}}
	avg, ok := e.Ratings().Average()
	assert.True(t, ok)
	assert.Equal(t, 4.0, avg)

	wish := &Experience{Type: TypeWishlist, Details: EmptyDetails(TypeWishlist)}
	_, ok = wish.Ratings().Average()
	assert.False(t, ok)

	missing := &Experience{Type: TypeHomeMeal}
	_, ok = missing.Ratings().Average()
	assert.False(t, ok)
}

func TestEmptyDetailsKindMatchesType(t *testing.T) {
	for _, typ := range ExperienceTypes {
		d := EmptyDetails(typ)
		require.NotNil(t, d)
		assert.Equal(t, typ, d.Kind())
	}
	wd := EmptyDetails(TypeWishlist).(*WishlistDetails)
	assert.Equal(t, PriorityMedium, wd.Priority)
}

func TestValidationErrorUnwrap(t *testing.T) {
	err := error(&ValidationError{Errors: []FieldError{{Field: "name", Message: "required"}, {Field: "date", Message: "required"}}})
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "validation: 2 errors", err.Error())

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.True(t, ve.HasField("date"))
	assert.False(t, ve.HasField("tags"))
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"spicy", "date night"}, NormalizeTags([]string{" Spicy", "", "date night", "SPICY "}))
	assert.Nil(t, NormalizeTags(nil))
}
