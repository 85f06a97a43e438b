package security

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/trailquest/trailquest-backend/pkg/config"
)

// ResetToken is a single-use password-reset credential. Plaintext goes to the
// user out of band; only Hash and ExpiresAt are ever persisted. The digest is
// a fast SHA-512 rather than the slow password hash: the token is random,
// high entropy and time bounded, so brute-force resistance comes from entropy,
// not hashing cost.
type ResetToken struct {
	Plaintext string
	Hash      string
	ExpiresAt time.Time
}

// NewResetToken draws a fresh random token and computes its storable hash.
func NewResetToken(cfg config.PasswordResetConfig, now time.Time) (ResetToken, error) {
	size := cfg.TokenBytes
	if size < 32 {
		size = 32
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return ResetToken{}, fmt.Errorf("generate reset token: %w", err)
	}

	plaintext := hex.EncodeToString(raw)
	return ResetToken{
		Plaintext: plaintext,
		Hash:      HashResetToken(plaintext),
		ExpiresAt: now.Add(ttl),
	}, nil
}

// HashResetToken recomputes the storable digest for a plaintext token so an
// incoming token can be resolved against the persisted hash.
func HashResetToken(plaintext string) string {
	sum := sha512.Sum512([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
