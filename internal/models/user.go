package models

import (
	"time"
)

type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	AvatarURL    *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Blocked      bool      `json:"-" db:"blocked"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// UserMeta is the denormalized owner snapshot embedded in feed items.
type UserMeta struct {
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}
