package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account created through Google sign-in. TokenVersion is the
// revocation counter: bumping it invalidates every refresh token issued
// before the bump.
type User struct {
	ID           string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"column:username;size:255;not null" json:"username"`
	Email        string    `gorm:"column:email;size:255" json:"email,omitempty"`
	Avatar       string    `gorm:"column:avatar" json:"avatar,omitempty"`
	Bio          string    `gorm:"column:bio" json:"bio,omitempty"`
	GoogleID     string    `gorm:"column:google_id;index" json:"-"`
	TokenVersion int       `gorm:"column:token_version;not null;default:1" json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.TokenVersion == 0 {
		u.TokenVersion = 1
	}
	return nil
}

// PublicUser is the projection safe to hand to other users: no email,
// no google identity, no revocation counter.
type PublicUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Avatar:    u.Avatar,
		Bio:       u.Bio,
		CreatedAt: u.CreatedAt,
	}
}
