package journal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"eatlog/internal/model"
	"eatlog/internal/notify"
)

// CreateResult is the outcome of Create. FailedPhotos counts uploads that
// were skipped; the experience itself is valid either way.
type CreateResult struct {
	Experience   *model.Experience
	FailedPhotos int
}

// Create inserts an experience, its place when it is a restaurant and its
// detail record in one transaction, then stores the photos one by one.
func (s *Service) Create(ctx context.Context, actor Actor, in CreateInput) (*CreateResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	in.normalize(actor)
	if err := in.Validate(s.maxPhotos); err != nil {
		return nil, err
	}

	e := &model.Experience{
		UserID:    actor.UserID,
		Type:      in.Type,
		Name:      in.Name,
		Date:      in.Date,
		MealTime:  in.MealTime,
		Notes:     in.Notes,
		Tags:      in.Tags,
		CreatedBy: in.CreatedBy,
		Favorite:  in.Favorite,
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if in.Type == model.TypeRestaurant {
			place, err := s.resolvePlace(ctx, actor.UserID, in.PlaceID, in.Place, in.Name)
			if err != nil {
				return err
			}
			e.PlaceID = &place.ID
		}
		if err := s.experiences.InsertExperience(ctx, e); err != nil {
			return err
		}
		return s.details.InsertDetails(ctx, e.ID, in.Details)
	})
	if err != nil {
		s.notify(notify.Error, "Could not save %q", in.Name)
		return nil, fmt.Errorf("journal.Create: %w", err)
	}

	s.log.InfoContext(ctx, "experience created",
		slog.String("experience_id", e.ID.String()),
		slog.String("type", string(e.Type)))

	failed := 0
	if len(in.Photos) > 0 {
		var stored []model.Photo
		var preferred uuid.UUID
		stored, preferred, failed = s.storePhotos(ctx, e, nil, in.Photos)
		if len(stored) > 0 {
			if err := s.ensureFeatured(ctx, e.ID, preferred); err != nil {
				s.log.WarnContext(ctx, "featured photo not set",
					slog.String("experience_id", e.ID.String()),
					slog.String("error", err.Error()))
			}
		}
	}

	created, err := s.experiences.GetExperience(ctx, actor.UserID, e.ID)
	if err != nil {
		return nil, fmt.Errorf("journal.Create reload: %w", err)
	}

	s.notify(notify.Success, "Added %s", created.Name)
	s.reportPhotoFailures(failed)
	return &CreateResult{Experience: created, FailedPhotos: failed}, nil
}

// resolvePlace loads the place given by id, or creates one from in.
// A new place without a name takes the experience name.
func (s *Service) resolvePlace(ctx context.Context, userID uuid.UUID, id *uuid.UUID, in *PlaceInput, name string) (*model.Place, error) {
	if id != nil {
		p, err := s.places.GetPlace(ctx, userID, *id)
		if err != nil {
			return nil, err
		}
		return p, nil
	}

	p := &model.Place{UserID: userID, Name: name}
	if in != nil {
		applyPlaceInput(p, in)
	}
	if err := s.places.CreatePlace(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func applyPlaceInput(p *model.Place, in *PlaceInput) {
	if in.Name != "" {
		p.Name = in.Name
	}
	p.Cuisine = in.Cuisine
	p.PriceRange = in.PriceRange
	p.Address = in.Address
	p.Website = in.Website
}
