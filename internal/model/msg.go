package model

import "github.com/google/uuid"

// Bubble Tea message types

// ErrorMsg represents an error message.
type ErrorMsg struct {
	Err error
}

// ExperiencesLoadedMsg is sent when the journal is loaded.
type ExperiencesLoadedMsg struct {
	Experiences []*Experience
}

// ExperienceLoadedMsg is sent when one experience is loaded for the detail screen.
type ExperienceLoadedMsg struct {
	Experience *Experience
}

// ExperienceSavedMsg is sent when a form save succeeds.
type ExperienceSavedMsg struct {
	Operation    string // insert, update
	Before       *Experience
	After        *Experience
	FailedPhotos int
}

// PhotosSavedMsg is sent when staged photo changes were applied.
type PhotosSavedMsg struct {
	Experience   *Experience
	FailedPhotos int
}

// FavoriteToggledMsg is sent when the favorite flag changes.
type FavoriteToggledMsg struct {
	ID       uuid.UUID
	Name     string
	Favorite bool
}

// ExperienceDeletedMsg is sent when an experience is deleted.
type ExperienceDeletedMsg struct {
	ID          uuid.UUID
	Name        string
	LeakedBlobs int
}

// ExperienceConvertedMsg is sent when a wishlist item became a visit.
type ExperienceConvertedMsg struct {
	From         uuid.UUID
	Experience   *Experience
	FailedPhotos int
}

// PreviewLoadedMsg carries the rendered cover photo of an experience.
type PreviewLoadedMsg struct {
	ExperienceID uuid.UUID
	Art          string
}

// FormCancelledMsg is sent when a form is cancelled.
type FormCancelledMsg struct{}

// Screen represents different app screens.
type Screen int

const (
	ScreenList Screen = iota
	ScreenHistory
	ScreenDetail
	ScreenForm
	ScreenPhotos
)

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNav Mode = iota
	ModeInsert
	ModeSearch
	ModeConfirm
)
