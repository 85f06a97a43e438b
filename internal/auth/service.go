package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trailquest/trailquest-backend/api/validators"
	"github.com/trailquest/trailquest-backend/internal/users"
	"github.com/trailquest/trailquest-backend/pkg/auth"
	"github.com/trailquest/trailquest-backend/pkg/config"
	"github.com/trailquest/trailquest-backend/pkg/db/models"
	"github.com/trailquest/trailquest-backend/pkg/enums"
	pkgerrors "github.com/trailquest/trailquest-backend/pkg/errors"
	"github.com/trailquest/trailquest-backend/pkg/logger"
	"github.com/trailquest/trailquest-backend/pkg/mailer"
	"github.com/trailquest/trailquest-backend/pkg/metrics"
	"github.com/trailquest/trailquest-backend/pkg/security"
)

// UserStore is the persistence surface the credential lifecycle needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByResetTokenHash(ctx context.Context, hash string) (*models.User, error)
	SetResetToken(ctx context.Context, id uuid.UUID, hash string, expires time.Time) error
	ClearResetToken(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, changedAt time.Time) error
}

// Service implements signup, login, the password-reset flow and
// authenticated password change.
type Service struct {
	cfg     *config.Config
	store   UserStore
	mail    mailer.Sender
	metrics *metrics.AuthMetrics
	logg    *logger.Logger

	now func() time.Time
}

func NewService(cfg *config.Config, store UserStore, mail mailer.Sender, authMetrics *metrics.AuthMetrics, logg *logger.Logger) *Service {
	return &Service{
		cfg:     cfg,
		store:   store,
		mail:    mail,
		metrics: authMetrics,
		logg:    logg,
		now:     time.Now,
	}
}

// Signup registers a new account and establishes a session. The role is
// always "user": privileged roles are assigned out of band, never through
// self-registration.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*Result, error) {
	passwordHash, err := security.HashPassword(req.Password, s.cfg.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Name:         validators.SanitizeString(req.Name, 120),
		Email:        validators.NormalizeEmail(req.Email),
		Role:         enums.RoleUser,
		PasswordHash: passwordHash,
		Active:       true,
	}

	if err := s.store.Create(ctx, user); err != nil {
		// Unique violations surface to the normalizer untyped so the
		// duplicate-value message is rendered from the driver detail.
		return nil, err
	}

	token, err := auth.MintSessionToken(s.cfg.JWT, s.now(), user.ID, user.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token")
	}

	s.metrics.IncSignup()
	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.signup")
	}

	return &Result{Token: token, User: users.FromModel(user)}, nil
}

// Login verifies credentials and establishes a session. Unknown email, wrong
// password and deactivated account are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Result, error) {
	user, err := s.store.FindByEmail(ctx, validators.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.ObserveLogin("failure")
			return nil, errIncorrectCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	if !user.Active {
		s.metrics.ObserveLogin("failure")
		return nil, errIncorrectCredentials()
	}

	ok, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		s.metrics.ObserveLogin("failure")
		return nil, errIncorrectCredentials()
	}

	token, err := auth.MintSessionToken(s.cfg.JWT, s.now(), user.ID, user.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token")
	}

	s.metrics.ObserveLogin("success")
	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.login")
	}

	return &Result{Token: token, User: users.FromModel(user)}, nil
}

// ForgotPassword issues a single-use reset token, stores only its digest, and
// mails the plaintext. A repeated request replaces the outstanding token. If
// the mail cannot be sent the stored digest is rolled back so no orphaned
// token lingers.
func (s *Service) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	normalized := validators.NormalizeEmail(email)

	user, err := s.store.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("Can't find user with the email: %s", normalized))
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	token, err := security.NewResetToken(s.cfg.PasswordReset, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reset token")
	}

	if err := s.store.SetResetToken(ctx, user.ID, token.Hash, token.ExpiresAt); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store reset token")
	}

	resetURL := fmt.Sprintf("%s/%s", resetURLBase, token.Plaintext)
	msg := mailer.Message{
		To:      user.Email,
		Subject: "Your password reset token (valid for 10 min)",
		Body: fmt.Sprintf(
			"Forgot your password? Submit a PATCH request with your new password and passwordConfirm to: %s\nIf you didn't forget your password, please ignore this email!",
			resetURL,
		),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		if clearErr := s.store.ClearResetToken(ctx, user.ID); clearErr != nil && s.logg != nil {
			s.logg.Error(ctx, "auth.reset_token_rollback_failed", clearErr)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "There was an error sending the email. Please try again later!")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.password_reset_requested")
	}
	return nil
}

// ResetPassword consumes a plaintext reset token. The token is resolved by
// digest; it is single use because the digest is cleared in the same update
// that rotates the password.
func (s *Service) ResetPassword(ctx context.Context, plaintextToken string, req ResetPasswordRequest) (*Result, error) {
	user, err := s.store.FindByResetTokenHash(ctx, security.HashResetToken(plaintextToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "Token is invalid or has expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup reset token")
	}

	now := s.now()
	if user.ResetTokenExpired(now) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "This token is already expired. Please restart the process again")
	}

	if err := s.rotatePassword(ctx, user.ID, req.Password, now); err != nil {
		return nil, err
	}

	token, err := auth.MintSessionToken(s.cfg.JWT, now, user.ID, user.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token")
	}

	s.metrics.IncPasswordReset()
	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.password_reset")
	}

	return &Result{Token: token, User: users.FromModel(user)}, nil
}

// UpdatePassword rotates the credential for an authenticated user after
// re-verifying the current password.
func (s *Service) UpdatePassword(ctx context.Context, userID uuid.UUID, req UpdatePasswordRequest) (*Result, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "The user belonging to this token no longer exist.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	ok, err := security.VerifyPassword(req.PasswordCurrent, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "Your current password is wrong")
	}

	now := s.now()
	if err := s.rotatePassword(ctx, user.ID, req.NewPassword, now); err != nil {
		return nil, err
	}

	token, err := auth.MintSessionToken(s.cfg.JWT, now, user.ID, user.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.password_changed")
	}

	return &Result{Token: token, User: users.FromModel(user)}, nil
}

// rotatePassword hashes and persists the new credential. PasswordChangedAt is
// backdated one second so the session token minted in the same request, whose
// iat has second precision, still passes the rotation gate.
func (s *Service) rotatePassword(ctx context.Context, userID uuid.UUID, password string, now time.Time) error {
	passwordHash, err := security.HashPassword(password, s.cfg.Password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.store.UpdatePassword(ctx, userID, passwordHash, now.Add(-time.Second)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}
	return nil
}

func errIncorrectCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthenticated, "Incorrect Email or Password")
}
