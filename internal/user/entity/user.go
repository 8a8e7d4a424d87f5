package entity

import "time"

// User represents an account row in the `users` table.
type User struct {
	ID           string    `gorm:"column:id;primaryKey;type:uuid"`
	Email        string    `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	BusinessName string    `gorm:"column:business_name;not null"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (User) TableName() string { return "users" }

// Profile is the public projection of a user returned to clients.
// It never carries the password hash.
type Profile struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	BusinessName string `json:"businessName"`
}

// Profile returns the sanitized view of u.
func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Email: u.Email, BusinessName: u.BusinessName}
}
