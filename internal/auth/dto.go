package auth

import (
	"github.com/trailquest/trailquest-backend/internal/users"
)

type SignupRequest struct {
	Name            string `json:"name" validate:"required,min=1,max=120"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8,max=128"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type UpdatePasswordRequest struct {
	PasswordCurrent    string `json:"passwordCurrent" validate:"required"`
	NewPassword        string `json:"newPassword" validate:"required,min=8,max=128"`
	NewPasswordConfirm string `json:"newPasswordConfirm" validate:"required,eqfield=NewPassword"`
}

// Result is what every credential operation that establishes a session
// returns: the freshly minted token and the safe user shape.
type Result struct {
	Token string
	User  *users.UserDTO
}
