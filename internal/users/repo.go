package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trailquest/trailquest-backend/pkg/db/models"
)

// Repository owns all persistence for the users table.
type Repository struct {
	conn *gorm.DB
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{conn: conn}
}

func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.conn.WithContext(ctx).Create(user).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.conn.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.conn.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) FindByResetTokenHash(ctx context.Context, hash string) (*models.User, error) {
	var user models.User
	if err := r.conn.WithContext(ctx).First(&user, "password_reset_token_hash = ?", hash).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SetResetToken stores the hash/expiry pair, unconditionally replacing any
// outstanding token. Last request wins.
func (r *Repository) SetResetToken(ctx context.Context, id uuid.UUID, hash string, expires time.Time) error {
	return r.conn.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"password_reset_token_hash": hash,
			"password_reset_expires":    expires,
		}).Error
}

func (r *Repository) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	return r.conn.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"password_reset_token_hash": nil,
			"password_reset_expires":    nil,
		}).Error
}

// UpdatePassword rotates the credential and retires any outstanding reset
// token in the same statement so no window exists where the consumed token
// could be replayed.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, changedAt time.Time) error {
	return r.conn.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"password_hash":             passwordHash,
			"password_changed_at":       changedAt,
			"password_reset_token_hash": nil,
			"password_reset_expires":    nil,
		}).Error
}

// UpdateProfile applies the provided column set to a user row. Callers are
// responsible for keeping password material out of the map.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.conn.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// Deactivate soft-deletes the account. The row stays for referential
// integrity but the user can no longer authenticate.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.conn.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("active", false).Error
}

// List returns active users ordered by creation time.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []models.User
	err := r.conn.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
