package entity

import "time"

const (
	DefaultStatus     = "draft"
	DefaultAvatarName = "Virtual Influencer"
)

// Video is a row in the `videos` table. JSON names follow the column names.
type Video struct {
	ID         int64     `gorm:"column:id;primaryKey" json:"id"`
	Title      string    `gorm:"column:title;not null" json:"title"`
	VideoURI   string    `gorm:"column:video_uri;not null" json:"video_uri"`
	AvatarID   *string   `gorm:"column:avatar_id" json:"avatar_id"`
	AvatarName string    `gorm:"column:avatar_name;not null" json:"avatar_name"`
	Status     string    `gorm:"column:status;not null" json:"status"`
	UserID     string    `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Video) TableName() string { return "videos" }

// Changes holds the fields of an update. Nil fields are left as they are.
type Changes struct {
	Title      *string
	VideoURI   *string
	AvatarID   *string
	AvatarName *string
	Status     *string
}

// Apply merges c into v.
func (c Changes) Apply(v *Video) {
	if c.Title != nil {
		v.Title = *c.Title
	}
	if c.VideoURI != nil {
		v.VideoURI = *c.VideoURI
	}
	if c.AvatarID != nil {
		// an empty id clears the avatar, matching what create stores
		if id := *c.AvatarID; id == "" {
			v.AvatarID = nil
		} else {
			v.AvatarID = &id
		}
	}
	if c.AvatarName != nil {
		v.AvatarName = *c.AvatarName
	}
	if c.Status != nil {
		v.Status = *c.Status
	}
}
