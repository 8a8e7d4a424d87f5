package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pnithesh/viralvision-backend/internal/video/entity"
)

var ErrNotFound = errors.New("video not found")

// VideoRepo provides owner-scoped data access for the videos table. Every
// statement carries a user_id predicate.
type VideoRepo struct {
	db *gorm.DB
}

func NewVideoRepo(db *gorm.DB) *VideoRepo { return &VideoRepo{db: db} }

// ListByOwner returns the owner's videos, newest first.
func (r *VideoRepo) ListByOwner(ctx context.Context, ownerID string) ([]entity.Video, error) {
	videos := []entity.Video{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("id DESC").
		Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

// GetForOwner returns ErrNotFound both for missing ids and for ids owned by
// someone else.
func (r *VideoRepo) GetForOwner(ctx context.Context, id int64, ownerID string) (*entity.Video, error) {
	var v entity.Video
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Take(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select video: %w", err)
	}
	return &v, nil
}

// Create inserts v and fills in its generated id.
func (r *VideoRepo) Create(ctx context.Context, v *entity.Video) error {
	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

// UpdateForOwner overwrites the mutable columns of v. It returns ErrNotFound
// when no row with v.ID belongs to v.UserID.
func (r *VideoRepo) UpdateForOwner(ctx context.Context, v *entity.Video) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Video{}).
		Where("id = ? AND user_id = ?", v.ID, v.UserID).
		Updates(map[string]any{
			"title":       v.Title,
			"video_uri":   v.VideoURI,
			"avatar_id":   v.AvatarID,
			"avatar_name": v.AvatarName,
			"status":      v.Status,
			"updated_at":  v.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("update video: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteForOwner removes the row in a single statement.
func (r *VideoRepo) DeleteForOwner(ctx context.Context, id int64, ownerID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&entity.Video{})
	if res.Error != nil {
		return fmt.Errorf("delete video: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
