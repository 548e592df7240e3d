package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// User is the local admin account allowed to change the reload settings.
type User struct {
	ID        uint64 `gorm:"primaryKey"`
	Active    bool
	Username  string `gorm:"unique;size:100;not null" form:"username"`
	Password  string `gorm:"size:255"                 form:"password" json:"-"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, argon2id.DefaultParams) //nolint:wrapcheck
}

// VerifyPassword reports whether password matches the stored hash.
func (u *User) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Err(err).Str("username", u.Username).Msg("failed to verify password")
		return false
	}

	return match
}
