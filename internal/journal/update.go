package journal

import (
	"context"
	"fmt"
	"log/slog"

	"eatlog/internal/model"
	"eatlog/internal/notify"
)

// UpdateResult is the outcome of Update.
type UpdateResult struct {
	Experience   *model.Experience
	FailedPhotos int
}

// EditFrom returns an UpdateInput that rewrites e unchanged. Callers adjust
// the fields they edit.
func EditFrom(e *model.Experience) UpdateInput {
	return UpdateInput{
		ID:        e.ID,
		Version:   e.Version,
		Name:      e.Name,
		Date:      e.Date,
		MealTime:  e.MealTime,
		Notes:     e.Notes,
		Tags:      append([]string(nil), e.Tags...),
		CreatedBy: e.CreatedBy,
		Favorite:  e.Favorite,
	}
}

// Update saves an edit. The experience row, its details and its place are
// written in one transaction guarded by the version the edit was based on;
// a stale version fails with model.ErrConflict and writes nothing. Staged
// photo changes run afterwards in this order: reorder, delete, feature, add.
func (s *Service) Update(ctx context.Context, actor Actor, in UpdateInput) (*UpdateResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	in.normalize()

	current, err := s.experiences.GetExperience(ctx, actor.UserID, in.ID)
	if err != nil {
		return nil, fmt.Errorf("journal.Update: %w", err)
	}
	if in.CreatedBy == "" {
		in.CreatedBy = current.CreatedBy
	}
	if err := in.Validate(current, s.maxPhotos); err != nil {
		return nil, err
	}

	e := *current
	e.Name = in.Name
	e.Date = in.Date
	e.MealTime = in.MealTime
	e.Notes = in.Notes
	e.Tags = in.Tags
	e.CreatedBy = in.CreatedBy
	e.Favorite = in.Favorite

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if in.Place != nil {
			if err := s.savePlace(ctx, &e, in.Place); err != nil {
				return err
			}
		}
		if err := s.experiences.UpdateExperience(ctx, &e, in.Version); err != nil {
			return err
		}
		if in.Details != nil {
			return s.details.UpsertDetails(ctx, e.ID, in.Details)
		}
		return nil
	})
	if err != nil {
		s.notify(notify.Error, "Could not save %q", in.Name)
		return nil, fmt.Errorf("journal.Update: %w", err)
	}

	failed, err := s.applyPhotoEdits(ctx, current, in)
	if err != nil {
		s.notify(notify.Error, "Saved %s, but some photo changes failed", e.Name)
		return nil, fmt.Errorf("journal.Update photos: %w", err)
	}

	updated, err := s.experiences.GetExperience(ctx, actor.UserID, in.ID)
	if err != nil {
		return nil, fmt.Errorf("journal.Update reload: %w", err)
	}

	s.log.InfoContext(ctx, "experience updated",
		slog.String("experience_id", updated.ID.String()),
		slog.Int("version", updated.Version))
	s.notify(notify.Success, "Saved %s", updated.Name)
	s.reportPhotoFailures(failed)
	return &UpdateResult{Experience: updated, FailedPhotos: failed}, nil
}

// savePlace updates the attached place, or creates and attaches one.
func (s *Service) savePlace(ctx context.Context, e *model.Experience, in *PlaceInput) error {
	if e.PlaceID == nil {
		p, err := s.resolvePlace(ctx, e.UserID, nil, in, e.Name)
		if err != nil {
			return err
		}
		e.PlaceID = &p.ID
		return nil
	}

	p, err := s.places.GetPlace(ctx, e.UserID, *e.PlaceID)
	if err != nil {
		return err
	}
	applyPlaceInput(p, in)
	return s.places.UpdatePlace(ctx, p)
}

func (s *Service) applyPhotoEdits(ctx context.Context, current *model.Experience, in UpdateInput) (int, error) {
	if in.PhotoOrder != nil {
		if err := s.applyOrder(ctx, in.PhotoOrder); err != nil {
			return 0, err
		}
	}
	if len(in.DeletePhotos) > 0 {
		if err := s.removePhotos(ctx, current, in.DeletePhotos); err != nil {
			return 0, err
		}
	}
	if in.FeaturedPhoto != nil {
		if err := s.ensureFeatured(ctx, current.ID, *in.FeaturedPhoto); err != nil {
			return 0, err
		}
	}
	if len(in.AddPhotos) == 0 {
		return 0, nil
	}

	existing, err := s.photos.ListPhotos(ctx, current.ID)
	if err != nil {
		return 0, err
	}
	stored, preferred, failed := s.storePhotos(ctx, current, existing, in.AddPhotos)
	if len(stored) > 0 {
		if err := s.ensureFeatured(ctx, current.ID, preferred); err != nil {
			return failed, err
		}
	}
	return failed, nil
}
