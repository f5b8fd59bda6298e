package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"eatlog/internal/model"
	"eatlog/internal/notify"
)

const blobDeleteAttempts = 3

// DeleteResult is the outcome of Delete. LeakedBlobs counts photo objects
// that could not be removed from storage.
type DeleteResult struct {
	Name        string
	LeakedBlobs int
}

// Delete removes an experience together with its details, tags and photo
// rows, then deletes the photo blobs. Blob cleanup is best effort and never
// fails the delete.
func (s *Service) Delete(ctx context.Context, actor Actor, id uuid.UUID) (*DeleteResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	e, err := s.experiences.GetExperience(ctx, actor.UserID, id)
	if err != nil {
		return nil, fmt.Errorf("journal.Delete: %w", err)
	}

	if err := s.experiences.DeleteExperience(ctx, actor.UserID, id); err != nil {
		s.notify(notify.Error, "Could not delete %q", e.Name)
		return nil, fmt.Errorf("journal.Delete: %w", err)
	}

	leaked := s.purgeBlobs(ctx, e.Photos)

	s.log.InfoContext(ctx, "experience deleted",
		slog.String("experience_id", id.String()),
		slog.Int("photos", len(e.Photos)),
		slog.Int("leaked_blobs", leaked))
	s.notify(notify.Success, "Deleted %s", e.Name)

	return &DeleteResult{Name: e.Name, LeakedBlobs: leaked}, nil
}

// purgeBlobs deletes the blobs behind photos, retrying each a few times.
// It returns how many could not be deleted.
func (s *Service) purgeBlobs(ctx context.Context, photos []model.Photo) int {
	leaked := 0
	for _, p := range photos {
		var err error
		for attempt := 0; attempt < blobDeleteAttempts; attempt++ {
			err = s.blobs.Delete(ctx, p.StoragePath)
			if err == nil || errors.Is(err, model.ErrNotFound) || ctx.Err() != nil {
				break
			}
		}
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			leaked++
			s.log.WarnContext(ctx, "photo blob leaked",
				slog.String("path", p.StoragePath),
				slog.String("error", err.Error()))
		}
	}
	return leaked
}
