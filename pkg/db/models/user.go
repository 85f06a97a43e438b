package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trailquest/trailquest-backend/pkg/enums"
)

// User is the canonical credential record. PasswordHash is write-only from
// the API surface: no transport shape ever includes it. The reset-token pair
// (hash, expiry) is always written and cleared together.
type User struct {
	ID                     uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name                   string     `gorm:"type:text;not null"`
	Email                  string     `gorm:"type:text;not null;uniqueIndex"`
	Photo                  *string    `gorm:"type:text"`
	Role                   enums.Role `gorm:"type:text;not null;default:user"`
	PasswordHash           string     `gorm:"column:password_hash;not null"`
	PasswordChangedAt      *time.Time `gorm:"column:password_changed_at"`
	PasswordResetTokenHash *string    `gorm:"column:password_reset_token_hash"`
	PasswordResetExpires   *time.Time `gorm:"column:password_reset_expires"`
	Active                 bool       `gorm:"not null;default:true"`
	CreatedAt              time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// ChangedPasswordAfter reports whether the password was rotated at or after
// the moment a session token was issued. A token is admitted only when it was
// issued strictly after the last rotation (or the password never changed).
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return !issuedAt.After(*u.PasswordChangedAt)
}

// ResetTokenExpired reports whether the outstanding reset token, if any, is
// past its validity window.
func (u *User) ResetTokenExpired(now time.Time) bool {
	return u.PasswordResetExpires == nil || now.After(*u.PasswordResetExpires)
}
