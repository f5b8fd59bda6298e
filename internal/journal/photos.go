package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"eatlog/internal/blob"
	"eatlog/internal/model"
	"eatlog/internal/notify"
)

// PhotoResult reports the outcome of adding photos.
type PhotoResult struct {
	Experience *model.Experience
	Added      int
	Failed     int
}

// AddPhotos appends photos after the current last one. Photos that fail to
// store are skipped and counted; the first photo of an experience without
// a featured photo becomes featured.
func (s *Service) AddPhotos(ctx context.Context, actor Actor, experienceID uuid.UUID, uploads []PhotoUpload) (*PhotoResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	e, err := s.experiences.GetExperience(ctx, actor.UserID, experienceID)
	if err != nil {
		return nil, fmt.Errorf("journal.AddPhotos: %w", err)
	}

	if errs := validateUploads(uploads, len(e.Photos), s.maxPhotos); len(errs) > 0 {
		return nil, &model.ValidationError{Errors: errs}
	}

	stored, preferred, failed := s.storePhotos(ctx, e, e.Photos, uploads)
	if len(stored) > 0 {
		if err := s.ensureFeatured(ctx, e.ID, preferred); err != nil {
			return nil, fmt.Errorf("journal.AddPhotos: %w", err)
		}
	}
	s.reportPhotoFailures(failed)

	e, err = s.experiences.GetExperience(ctx, actor.UserID, experienceID)
	if err != nil {
		return nil, fmt.Errorf("journal.AddPhotos reload: %w", err)
	}
	return &PhotoResult{Experience: e, Added: len(stored), Failed: failed}, nil
}

// DeletePhoto removes a photo's blob and then its row. Survivors are
// renumbered densely and, when the featured photo was removed, the photo
// now first in order is promoted.
func (s *Service) DeletePhoto(ctx context.Context, actor Actor, experienceID, photoID uuid.UUID) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	e, err := s.experiences.GetExperience(ctx, actor.UserID, experienceID)
	if err != nil {
		return fmt.Errorf("journal.DeletePhoto: %w", err)
	}
	if _, ok := findPhoto(e.Photos, photoID); !ok {
		return fmt.Errorf("journal.DeletePhoto photo %s: %w", photoID, model.ErrNotFound)
	}

	if err := s.removePhotos(ctx, e, []uuid.UUID{photoID}); err != nil {
		return fmt.Errorf("journal.DeletePhoto: %w", err)
	}
	return nil
}

// ReorderPhotos assigns each photo its position in order. order must list
// every photo of the experience exactly once.
func (s *Service) ReorderPhotos(ctx context.Context, actor Actor, experienceID uuid.UUID, order []uuid.UUID) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	e, err := s.experiences.GetExperience(ctx, actor.UserID, experienceID)
	if err != nil {
		return fmt.Errorf("journal.ReorderPhotos: %w", err)
	}

	existing := make(map[uuid.UUID]bool, len(e.Photos))
	for _, p := range e.Photos {
		existing[p.ID] = true
	}
	if fe := validatePermutation(order, existing, nil, len(e.Photos)); fe != nil {
		return &model.ValidationError{Errors: []model.FieldError{*fe}}
	}

	if err := s.applyOrder(ctx, order); err != nil {
		return fmt.Errorf("journal.ReorderPhotos: %w", err)
	}
	return nil
}

// MovePhoto moves one photo to position index, shifting the others.
func (s *Service) MovePhoto(ctx context.Context, actor Actor, experienceID, photoID uuid.UUID, index int) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	e, err := s.experiences.GetExperience(ctx, actor.UserID, experienceID)
	if err != nil {
		return fmt.Errorf("journal.MovePhoto: %w", err)
	}
	if _, ok := findPhoto(e.Photos, photoID); !ok {
		return fmt.Errorf("journal.MovePhoto photo %s: %w", photoID, model.ErrNotFound)
	}
	if index < 0 || index >= len(e.Photos) {
		return model.NewValidationError("position", fmt.Sprintf("must be between 1 and %d", len(e.Photos)))
	}
	return s.ReorderPhotos(ctx, actor, experienceID, MoveInOrder(e.Photos, photoID, index))
}

// MoveInOrder returns the photo ids in sort order with photoID moved to index.
func MoveInOrder(photos []model.Photo, photoID uuid.UUID, index int) []uuid.UUID {
	order := make([]uuid.UUID, 0, len(photos))
	for _, p := range photos {
		if p.ID != photoID {
			order = append(order, p.ID)
		}
	}
	if index > len(order) {
		index = len(order)
	}
	if index < 0 {
		index = 0
	}
	order = append(order, uuid.Nil)
	copy(order[index+1:], order[index:])
	order[index] = photoID
	return order
}

// SetFeaturedPhoto makes photoID the only featured photo of the experience.
func (s *Service) SetFeaturedPhoto(ctx context.Context, actor Actor, experienceID, photoID uuid.UUID) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	e, err := s.experiences.GetExperience(ctx, actor.UserID, experienceID)
	if err != nil {
		return fmt.Errorf("journal.SetFeaturedPhoto: %w", err)
	}
	if _, ok := findPhoto(e.Photos, photoID); !ok {
		return fmt.Errorf("journal.SetFeaturedPhoto photo %s: %w", photoID, model.ErrNotFound)
	}

	if err := s.ensureFeatured(ctx, experienceID, photoID); err != nil {
		return fmt.Errorf("journal.SetFeaturedPhoto: %w", err)
	}
	return nil
}

// storePhotos uploads photos one at a time, numbering them after existing.
// It returns the stored photos, the id of a stored photo flagged featured
// (uuid.Nil if none) and the number of failures.
func (s *Service) storePhotos(ctx context.Context, e *model.Experience, existing []model.Photo, uploads []PhotoUpload) ([]model.Photo, uuid.UUID, int) {
	next := nextSortOrder(existing)
	preferred := uuid.Nil
	failed := 0

	var stored []model.Photo
	for n, u := range uploads {
		p, err := s.storePhoto(ctx, e, u, next)
		if err != nil {
			failed++
			s.log.WarnContext(ctx, "photo upload failed",
				slog.String("experience_id", e.ID.String()),
				slog.Int("photo", n+1),
				slog.String("error", err.Error()))
			continue
		}
		next++
		stored = append(stored, *p)
		if u.Featured {
			preferred = p.ID
		}
	}
	return stored, preferred, failed
}

func (s *Service) storePhoto(ctx context.Context, e *model.Experience, u PhotoUpload, order int) (*model.Photo, error) {
	data, ext, err := blob.Normalize(u.Data, s.maxEdge, s.jpegQuality)
	if err != nil {
		return nil, err
	}

	p := &model.Photo{ID: uuid.New(), ExperienceID: e.ID, Caption: u.Caption, SortOrder: order}
	p.StoragePath = blob.ObjectPath(e.UserID, e.ID, p.ID, ext)

	if err := s.blobs.Upload(ctx, p.StoragePath, data); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	if err := s.photos.InsertPhoto(ctx, p); err != nil {
		s.deleteBlobQuietly(ctx, p.StoragePath)
		return nil, fmt.Errorf("insert photo: %w", err)
	}
	return p, nil
}

// ensureFeatured features preferred when set; otherwise it features the
// first photo by order if no photo is featured yet.
func (s *Service) ensureFeatured(ctx context.Context, experienceID, preferred uuid.UUID) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if preferred != uuid.Nil {
			return s.photos.SetFeaturedPhoto(ctx, experienceID, preferred)
		}

		photos, err := s.photos.ListPhotos(ctx, experienceID)
		if err != nil {
			return err
		}
		if len(photos) == 0 {
			return nil
		}
		for _, p := range photos {
			if p.Featured {
				return nil
			}
		}
		return s.photos.SetFeaturedPhoto(ctx, experienceID, photos[0].ID)
	})
}

// removePhotos deletes each photo's blob before its row. Whatever happens,
// the survivors are renumbered and a removed featured photo is replaced by
// the photo first in order.
func (s *Service) removePhotos(ctx context.Context, e *model.Experience, ids []uuid.UUID) error {
	var removeErr error
	featuredGone := false

	for _, id := range ids {
		p, ok := findPhoto(e.Photos, id)
		if !ok {
			continue
		}
		if err := s.blobs.Delete(ctx, p.StoragePath); err != nil && !errors.Is(err, model.ErrNotFound) {
			removeErr = fmt.Errorf("delete blob %s: %w", p.StoragePath, err)
			break
		}
		if err := s.photos.DeletePhoto(ctx, id); err != nil {
			removeErr = fmt.Errorf("delete photo %s: %w", id, err)
			break
		}
		if p.Featured {
			featuredGone = true
		}
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		survivors, err := s.renumber(ctx, e.ID)
		if err != nil {
			return err
		}
		if featuredGone && len(survivors) > 0 {
			return s.photos.SetFeaturedPhoto(ctx, e.ID, survivors[0].ID)
		}
		return nil
	})
	return errors.Join(removeErr, err)
}

// renumber closes gaps so sort orders run 0..n-1 in current order.
func (s *Service) renumber(ctx context.Context, experienceID uuid.UUID) ([]model.Photo, error) {
	photos, err := s.photos.ListPhotos(ctx, experienceID)
	if err != nil {
		return nil, err
	}
	for n := range photos {
		if photos[n].SortOrder != n {
			if err := s.photos.SetPhotoSortOrder(ctx, photos[n].ID, n); err != nil {
				return nil, err
			}
			photos[n].SortOrder = n
		}
	}
	return photos, nil
}

func (s *Service) applyOrder(ctx context.Context, order []uuid.UUID) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		for n, id := range order {
			if err := s.photos.SetPhotoSortOrder(ctx, id, n); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) deleteBlobQuietly(ctx context.Context, path string) {
	if err := s.blobs.Delete(ctx, path); err != nil {
		s.log.WarnContext(ctx, "blob cleanup failed", slog.String("path", path), slog.String("error", err.Error()))
	}
}

func (s *Service) reportPhotoFailures(failed int) {
	switch {
	case failed == 1:
		s.notify(notify.Error, "1 photo could not be saved")
	case failed > 1:
		s.notify(notify.Error, "%d photos could not be saved", failed)
	}
}

func findPhoto(photos []model.Photo, id uuid.UUID) (model.Photo, bool) {
	for _, p := range photos {
		if p.ID == id {
			return p, true
		}
	}
	return model.Photo{}, false
}

// nextSortOrder continues after the current maximum, or starts at 0.
func nextSortOrder(photos []model.Photo) int {
	next := 0
	for _, p := range photos {
		if p.SortOrder >= next {
			next = p.SortOrder + 1
		}
	}
	return next
}
