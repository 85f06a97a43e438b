package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/trailquest/trailquest-backend/pkg/db/models"
	"github.com/trailquest/trailquest-backend/pkg/enums"
)

// UserDTO is the transport shape for a user. Password material and the reset
// token pair never appear here.
type UserDTO struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Photo     *string    `json:"photo,omitempty"`
	Role      enums.Role `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
}

func FromModel(user *models.User) *UserDTO {
	if user == nil {
		return nil
	}
	return &UserDTO{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Photo:     user.Photo,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

func FromModels(list []models.User) []*UserDTO {
	out := make([]*UserDTO, 0, len(list))
	for i := range list {
		out = append(out, FromModel(&list[i]))
	}
	return out
}

// UpdateMeRequest carries the self-service profile fields. Anything else in
// the body is rejected at decode time.
type UpdateMeRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Photo *string `json:"photo,omitempty" validate:"omitempty,max=512"`
}
