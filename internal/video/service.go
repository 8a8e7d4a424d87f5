package video

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pnithesh/viralvision-backend/internal/video/entity"
	videorepo "github.com/pnithesh/viralvision-backend/internal/video/repo"
)

var (
	ErrNotFound   = errors.New("video not found")
	ErrValidation = errors.New("validation failed")
)

// Repository is the owner-scoped persistence the service needs.
type Repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]entity.Video, error)
	GetForOwner(ctx context.Context, id int64, ownerID string) (*entity.Video, error)
	Create(ctx context.Context, v *entity.Video) error
	UpdateForOwner(ctx context.Context, v *entity.Video) error
	DeleteForOwner(ctx context.Context, id int64, ownerID string) error
}

// CreateInput carries the fields of a new video. Empty AvatarName and
// Status fall back to their defaults.
type CreateInput struct {
	Title      string
	VideoURI   string
	AvatarID   string
	AvatarName string
	Status     string
}

// Service implements video CRUD for a single owner at a time.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(r Repository) *Service {
	return &Service{repo: r, now: time.Now}
}

func (s *Service) List(ctx context.Context, ownerID string) ([]entity.Video, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *Service) Get(ctx context.Context, ownerID string, id int64) (*entity.Video, error) {
	v, err := s.repo.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return v, nil
}

func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*entity.Video, error) {
	if err := validate(in.Title, in.VideoURI); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	v := &entity.Video{
		Title:      in.Title,
		VideoURI:   in.VideoURI,
		AvatarName: in.AvatarName,
		Status:     in.Status,
		UserID:     ownerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if in.AvatarID != "" {
		id := in.AvatarID
		v.AvatarID = &id
	}
	if v.AvatarName == "" {
		v.AvatarName = entity.DefaultAvatarName
	}
	if v.Status == "" {
		v.Status = entity.DefaultStatus
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Update merges ch into the owned video and writes it back.
func (s *Service) Update(ctx context.Context, ownerID string, id int64, ch entity.Changes) (*entity.Video, error) {
	v, err := s.repo.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	ch.Apply(v)
	if err := validate(v.Title, v.VideoURI); err != nil {
		return nil, err
	}
	if v.Status == "" {
		v.Status = entity.DefaultStatus
	}
	if v.AvatarName == "" {
		v.AvatarName = entity.DefaultAvatarName
	}
	v.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateForOwner(ctx, v); err != nil {
		return nil, mapRepoErr(err)
	}
	return v, nil
}

func (s *Service) Delete(ctx context.Context, ownerID string, id int64) error {
	return mapRepoErr(s.repo.DeleteForOwner(ctx, id, ownerID))
}

func validate(title, videoURI string) error {
	var missing []string
	if strings.TrimSpace(title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(videoURI) == "" {
		missing = append(missing, "videoPath")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrValidation, strings.Join(missing, " and "))
	}
	return nil
}

func mapRepoErr(err error) error {
	if errors.Is(err, videorepo.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
