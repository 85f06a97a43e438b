package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trailquest/trailquest-backend/api/validators"
	"github.com/trailquest/trailquest-backend/pkg/db/models"
	pkgerrors "github.com/trailquest/trailquest-backend/pkg/errors"
	"github.com/trailquest/trailquest-backend/pkg/logger"
)

// Store is the persistence surface the self-service operations need.
// *Repository satisfies it.
type Store interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, fields map[string]any) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

// Service implements the authenticated self-service operations plus the
// admin listing.
type Service struct {
	repo Store
	logg *logger.Logger
}

func NewService(repo Store, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// GetMe returns the calling user's profile.
func (s *Service) GetMe(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "The user belonging to this token no longer exist.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	return FromModel(user), nil
}

// UpdateMe applies profile-only changes. Password fields are rejected before
// this point; the field map built here can never carry credential columns.
func (s *Service) UpdateMe(ctx context.Context, userID uuid.UUID, req UpdateMeRequest) (*UserDTO, error) {
	fields := map[string]any{}
	if req.Name != nil {
		fields["name"] = validators.SanitizeString(*req.Name, 120)
	}
	if req.Email != nil {
		fields["email"] = validators.NormalizeEmail(*req.Email)
	}
	if req.Photo != nil {
		fields["photo"] = *req.Photo
	}

	if len(fields) > 0 {
		if err := s.repo.UpdateProfile(ctx, userID, fields); err != nil {
			return nil, err
		}
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload user")
	}
	return FromModel(user), nil
}

// DeleteMe deactivates the account. Existing session tokens keep verifying
// cryptographically but the access gate refuses inactive users, so the
// deactivation takes effect on the next request.
func (s *Service) DeleteMe(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate user")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, userID.String()), "user.deactivated")
	}
	return nil
}

// List returns active users for the admin surface.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*UserDTO, error) {
	records, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	return FromModels(records), nil
}
