package journal

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"eatlog/internal/model"
	"eatlog/internal/notify"
)

// Get loads one experience with its place, details, tags and photos.
func (s *Service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Experience, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	e, err := s.experiences.GetExperience(ctx, actor.UserID, id)
	if err != nil {
		return nil, fmt.Errorf("journal.Get: %w", err)
	}
	return e, nil
}

// List loads every experience of the actor, newest first.
func (s *Service) List(ctx context.Context, actor Actor) ([]*model.Experience, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	list, err := s.experiences.ListExperiences(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("journal.List: %w", err)
	}
	return list, nil
}

// SetFavorite sets the favorite flag. It does not count as an edit, so the
// version is unchanged.
func (s *Service) SetFavorite(ctx context.Context, actor Actor, id uuid.UUID, favorite bool) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.experiences.SetFavorite(ctx, actor.UserID, id, favorite); err != nil {
		return fmt.Errorf("journal.SetFavorite: %w", err)
	}
	if favorite {
		s.notify(notify.Success, "Added to favorites")
	} else {
		s.notify(notify.Info, "Removed from favorites")
	}
	return nil
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (s *Service) ToggleFavorite(ctx context.Context, actor Actor, id uuid.UUID) (bool, error) {
	e, err := s.Get(ctx, actor, id)
	if err != nil {
		return false, err
	}
	if err := s.SetFavorite(ctx, actor, id, !e.Favorite); err != nil {
		return e.Favorite, err
	}
	return !e.Favorite, nil
}

// Places lists the actor's places, filtered by a case-insensitive name
// search when search is not empty.
func (s *Service) Places(ctx context.Context, actor Actor, search string) ([]model.Place, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	places, err := s.places.ListPlaces(ctx, actor.UserID, search)
	if err != nil {
		return nil, fmt.Errorf("journal.Places: %w", err)
	}
	return places, nil
}
