package controllers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trailquest/trailquest-backend/api/middleware"
	"github.com/trailquest/trailquest-backend/api/responses"
	"github.com/trailquest/trailquest-backend/api/validators"
	"github.com/trailquest/trailquest-backend/internal/auth"
	"github.com/trailquest/trailquest-backend/internal/users"
	"github.com/trailquest/trailquest-backend/pkg/config"
	pkgerrors "github.com/trailquest/trailquest-backend/pkg/errors"
	"github.com/trailquest/trailquest-backend/pkg/logger"
)

// AuthController exposes the credential lifecycle over HTTP.
type AuthController struct {
	cfg     *config.Config
	service *auth.Service
	logg    *logger.Logger
}

func NewAuthController(cfg *config.Config, service *auth.Service, logg *logger.Logger) *AuthController {
	return &AuthController{cfg: cfg, service: service, logg: logg}
}

func (c *AuthController) Signup(w http.ResponseWriter, r *http.Request) {
	var req auth.SignupRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.cfg.App, c.logg, w, r, err)
		return
	}

	result, err := c.service.Signup(r.Context(), req)
	if err != nil {
		responses.WriteError(r.Context(), c.cfg.App, c.logg, w, r, err)
		return
	}

	c.writeSession(w, http.StatusCreated, result)
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.cfg.App, c.logg, w, r, err)
		return
	}

	result, err := c.service.Login(r.Context(), req)
	if err != nil {
		responses.WriteError(r.Context(), c.cfg.App, c.logg, w, r, err)
		return
	}

	c.writeSession(w, http.StatusOK, result)
}

func (c *AuthController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req auth.ForgotPasswordRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.cfg.App, c.logg, w, r, err)
		return
	}

	if err := c.service.ForgotPassword(r.Context(), req.Email, resetURLBase(r)); err != nil {
		responses.WriteError(r.Context(), c.cfg.App, c.logg, w, r, err)
		return
	}

	responses.WriteSuccessMessage(w, http.StatusOK, "Your Password reset token has been sent to the email address you specified")
}

func (c *AuthController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		responses.WriteError(r.Context(), c.cfg.App, c.logg, w, r,
			pkgerrors.New(pkgerrors.CodeBadRequest, "Token is invalid or has expired"))
		return
	}

	var req auth.ResetPasswordRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.cfg.App, c.logg, w, r, err)
		return
	}

	result, err := c.service.ResetPassword(r.Context(), token, req)
	if err != nil {
		responses.WriteError(r.Context(), c.cfg.App, c.logg, w, r, err)
		return
	}

	c.writeSession(w, http.StatusOK, result)
}

func (c *AuthController) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req auth.UpdatePasswordRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.cfg.App, c.logg, w, r, err)
		return
	}

	result, err := c.service.UpdatePassword(r.Context(), userID, req)
	if err != nil {
		responses.WriteError(r.Context(), c.cfg.App, c.logg, w, r, err)
		return
	}

	c.writeSession(w, http.StatusOK, result)
}

func (c *AuthController) writeSession(w http.ResponseWriter, status int, result *auth.Result) {
	responses.SetSessionCookie(w, c.cfg.App, c.cfg.JWT, result.Token)
	responses.WriteSuccessToken(w, status, result.Token, map[string]*users.UserDTO{"user": result.User})
}

func resetURLBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/api/v1/users/resetPassword", scheme, r.Host)
}
