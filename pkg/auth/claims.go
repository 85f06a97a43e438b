package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/trailquest/trailquest-backend/pkg/enums"
)

// SessionClaims is the typed JWT issued to clients. Subject carries the user
// id; IssuedAt is what the access gate compares against the password-rotation
// timestamp.
type SessionClaims struct {
	Role enums.Role `json:"role"`
	jwt.RegisteredClaims
}
