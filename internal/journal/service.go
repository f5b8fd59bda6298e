// Package journal implements the experience operations: create, read, edit,
// photo management, wishlist conversion and delete. Each operation keeps
// the detail, photo and place invariants of the record graph.
package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"eatlog/internal/config"
	"eatlog/internal/model"
	"eatlog/internal/notify"
)

type placeRepo interface {
	CreatePlace(ctx context.Context, p *model.Place) error
	GetPlace(ctx context.Context, userID, id uuid.UUID) (*model.Place, error)
	UpdatePlace(ctx context.Context, p *model.Place) error
	ListPlaces(ctx context.Context, userID uuid.UUID, search string) ([]model.Place, error)
}

type experienceRepo interface {
	InsertExperience(ctx context.Context, e *model.Experience) error
	UpdateExperience(ctx context.Context, e *model.Experience, expectedVersion int) error
	SetFavorite(ctx context.Context, userID, id uuid.UUID, favorite bool) error
	DeleteExperience(ctx context.Context, userID, id uuid.UUID) error
	GetExperience(ctx context.Context, userID, id uuid.UUID) (*model.Experience, error)
	ListExperiences(ctx context.Context, userID uuid.UUID) ([]*model.Experience, error)
}

type detailsRepo interface {
	InsertDetails(ctx context.Context, experienceID uuid.UUID, d model.Details) error
	UpsertDetails(ctx context.Context, experienceID uuid.UUID, d model.Details) error
}

type photoRepo interface {
	InsertPhoto(ctx context.Context, p *model.Photo) error
	ListPhotos(ctx context.Context, experienceID uuid.UUID) ([]model.Photo, error)
	DeletePhoto(ctx context.Context, id uuid.UUID) error
	SetPhotoSortOrder(ctx context.Context, id uuid.UUID, order int) error
	SetFeaturedPhoto(ctx context.Context, experienceID, photoID uuid.UUID) error
}

type blobStore interface {
	Upload(ctx context.Context, path string, data []byte) error
	Download(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type notifier interface {
	Publishf(level notify.Level, format string, args ...any)
}

// Deps groups the collaborators of the journal service.
type Deps struct {
	Places      placeRepo
	Experiences experienceRepo
	Details     detailsRepo
	Photos      photoRepo
	Blobs       blobStore
	Tx          txManager
	Notices     notifier // optional
}

// Actor is the signed-in user on whose behalf an operation runs.
type Actor struct {
	UserID uuid.UUID
	Diner  model.Diner // "" when the display name matches neither diner
}

// Service implements journal operations.
type Service struct {
	log         *slog.Logger
	places      placeRepo
	experiences experienceRepo
	details     detailsRepo
	photos      photoRepo
	blobs       blobStore
	tx          txManager
	notices     notifier

	timeout     time.Duration
	maxPhotos   int
	loc         *time.Location
	maxEdge     uint
	jpegQuality int
	diners      config.DinersConfig

	now func() time.Time
}

// NewService creates a new journal service.
func NewService(logger *slog.Logger, deps Deps, cfg config.Config) *Service {
	return &Service{
		log:         logger.With("service", "journal"),
		places:      deps.Places,
		experiences: deps.Experiences,
		details:     deps.Details,
		photos:      deps.Photos,
		blobs:       deps.Blobs,
		tx:          deps.Tx,
		notices:     deps.Notices,
		timeout:     cfg.Journal.OperationTimeout,
		maxPhotos:   cfg.Journal.MaxPhotos,
		loc:         cfg.Journal.Location(),
		maxEdge:     cfg.Storage.MaxImageEdge,
		jpegQuality: cfg.Storage.JPEGQuality,
		diners:      cfg.Diners,
		now:         time.Now,
	}
}

// ActorFor maps a user onto an actor, matching the display name against
// the configured diners.
func (s *Service) ActorFor(user *model.User) Actor {
	slot, _ := s.diners.SlotFor(user.DisplayName)
	return Actor{UserID: user.ID, Diner: slot}
}

// MaxPhotos is the per-experience photo limit.
func (s *Service) MaxPhotos() int { return s.maxPhotos }

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// today is the current date in the configured location, as a UTC midnight value.
func (s *Service) today() time.Time {
	n := s.now().In(s.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) notify(level notify.Level, format string, args ...any) {
	if s.notices != nil {
		s.notices.Publishf(level, format, args...)
	}
}
