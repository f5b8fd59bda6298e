package model

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the storage and display layout for experience dates.
const DateLayout = "2006-01-02"

// ExperienceType selects which detail record an experience carries.
type ExperienceType string

const (
	TypeRestaurant ExperienceType = "restaurant"
	TypeHomeMeal   ExperienceType = "home_meal"
	TypeWishlist   ExperienceType = "wishlist"
)

// ExperienceTypes lists every experience type in display order.
var ExperienceTypes = []ExperienceType{TypeRestaurant, TypeHomeMeal, TypeWishlist}

func (t ExperienceType) Valid() bool {
	switch t {
	case TypeRestaurant, TypeHomeMeal, TypeWishlist:
		return true
	}
	return false
}

// Label returns a human-readable name for the type.
func (t ExperienceType) Label() string {
	switch t {
	case TypeRestaurant:
		return "Restaurant"
	case TypeHomeMeal:
		return "Home Meal"
	case TypeWishlist:
		return "Wishlist"
	default:
		return string(t)
	}
}

// ParseExperienceType accepts the stored value or a loose spelling ("home-meal", "Home Meal").
func ParseExperienceType(s string) (ExperienceType, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	t := ExperienceType(normalized)
	if !t.Valid() {
		return "", fmt.Errorf("unknown experience type %q", s)
	}
	return t, nil
}

// MealTime is the optional time of day of an experience.
type MealTime string

const (
	MealBreakfast MealTime = "breakfast"
	MealLunch     MealTime = "lunch"
	MealDinner    MealTime = "dinner"
	MealSnack     MealTime = "snack"
)

func (m MealTime) Valid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

// PriceRange is a restaurant price bracket from "$" to "$$$$".
type PriceRange string

func (p PriceRange) Valid() bool {
	switch p {
	case "$", "$$", "$$$", "$$$$":
		return true
	}
	return false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// WishlistType says whether a wishlist item is a place to eat or a recipe to cook.
type WishlistType string

const (
	WishlistRestaurant WishlistType = "restaurant"
	WishlistRecipe     WishlistType = "recipe"
)

func (w WishlistType) Valid() bool {
	return w == WishlistRestaurant || w == WishlistRecipe
}

// Diner identifies one of the two people sharing the journal.
type Diner string

const (
	DinerFirst  Diner = "first"
	DinerSecond Diner = "second"
)

func (d Diner) Valid() bool {
	return d == DinerFirst || d == DinerSecond
}

// Cuisines are the suggested cuisine values; anything else is kept as free text.
var Cuisines = []string{
	"American", "Chinese", "French", "Greek", "Indian", "Italian", "Japanese", "Korean",
	"Mediterranean", "Mexican", "Middle Eastern", "Spanish", "Thai", "Vietnamese", "BBQ", "Other",
}

// NormalizeCuisine returns the canonical spelling of a known cuisine,
// or the trimmed input when it is free text.
func NormalizeCuisine(s string) string {
	s = strings.TrimSpace(s)
	for _, c := range Cuisines {
		if strings.EqualFold(c, s) {
			return c
		}
	}
	return s
}

// ValidRating reports whether v is between 1 and 5 in half-point steps.
func ValidRating(v float64) bool {
	if v < 1 || v > 5 {
		return false
	}
	return math.Mod(v*2, 1) == 0
}

// Place is a reusable restaurant identity.
type Place struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Name       string
	Cuisine    string
	PriceRange PriceRange
	Address    string
	Website    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Ratings holds the independent per-diner ratings; nil means not yet rated.
type Ratings struct {
	First  *float64
	Second *float64
}

// Average returns the mean of the present ratings. ok is false when neither
// diner has rated, which is distinct from a zero rating.
func (r Ratings) Average() (avg float64, ok bool) {
	switch {
	case r.First != nil && r.Second != nil:
		return (*r.First + *r.Second) / 2, true
	case r.First != nil:
		return *r.First, true
	case r.Second != nil:
		return *r.Second, true
	default:
		return 0, false
	}
}

// Photo is the metadata row of an uploaded image.
type Photo struct {
	ID           uuid.UUID
	ExperienceID uuid.UUID
	StoragePath  string
	Caption      string
	Featured     bool
	SortOrder    int
	UploadedAt   time.Time
}

// Experience is one journal entry together with its composed record graph.
type Experience struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	PlaceID   *uuid.UUID
	Type      ExperienceType
	Name      string
	Date      *time.Time // nil exactly when Type is TypeWishlist
	MealTime  MealTime
	Notes     string
	Tags      []string
	CreatedBy Diner
	Favorite  bool
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time

	Place   *Place
	Details Details // nil when the detail row is missing
	Photos  []Photo // ordered by SortOrder
}

// Ratings returns the per-diner ratings carried by the detail record, if any.
func (e *Experience) Ratings() Ratings {
	switch d := e.Details.(type) {
	case *RestaurantDetails:
		return d.Ratings
	case *HomeMealDetails:
		return d.Ratings
	default:
		return Ratings{}
	}
}

// DateString returns the date formatted with DateLayout, or "" for wishlist items.
func (e *Experience) DateString() string {
	if e.Date == nil {
		return ""
	}
	return e.Date.Format(DateLayout)
}

// User is an identity known to the journal.
type User struct {
	ID           uuid.UUID
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PasswordResetToken is a one-time token exchanged for a new password.
type PasswordResetToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// NormalizeTags trims and lower-cases tags, dropping empty and duplicate ones.
// The result keeps first-seen order.
func NormalizeTags(tags []string) []string {
	var out []string
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
