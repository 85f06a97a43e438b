package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/trailquest/trailquest-backend/api/middleware"
	"github.com/trailquest/trailquest-backend/api/responses"
	"github.com/trailquest/trailquest-backend/api/validators"
	"github.com/trailquest/trailquest-backend/internal/users"
	"github.com/trailquest/trailquest-backend/pkg/config"
	pkgerrors "github.com/trailquest/trailquest-backend/pkg/errors"
	"github.com/trailquest/trailquest-backend/pkg/logger"
)

// UsersController exposes the authenticated self-service surface and the
// admin listing.
type UsersController struct {
	cfg     *config.Config
	service *users.Service
	logg    *logger.Logger
}

func NewUsersController(cfg *config.Config, service *users.Service, logg *logger.Logger) *UsersController {
	return &UsersController{cfg: cfg, service: service, logg: logg}
}

func (c *UsersController) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	user, err := c.service.GetMe(r.Context(), userID)
	if err != nil {
		responses.WriteError(r.Context(), c.cfg.App, c.logg, w, r, err)
		return
	}

	responses.WriteSuccess(w, http.StatusOK, map[string]*users.UserDTO{"user": user})
}

func (c *UsersController) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	if err := rejectPasswordFields(r); err != nil {
		responses.WriteError(r.Context(), c.cfg.App, c.logg, w, r, err)
		return
	}

	var req users.UpdateMeRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.cfg.App, c.logg, w, r, err)
		return
	}

	user, err := c.service.UpdateMe(r.Context(), userID, req)
	if err != nil {
		responses.WriteError(r.Context(), c.cfg.App, c.logg, w, r, err)
		return
	}

	responses.WriteSuccess(w, http.StatusOK, map[string]*users.UserDTO{"user": user})
}

func (c *UsersController) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	if err := c.service.DeleteMe(r.Context(), userID); err != nil {
		responses.WriteError(r.Context(), c.cfg.App, c.logg, w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *UsersController) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	list, err := c.service.List(r.Context(), limit, offset)
	if err != nil {
		responses.WriteError(r.Context(), c.cfg.App, c.logg, w, r, err)
		return
	}

	responses.WriteSuccess(w, http.StatusOK, map[string]any{"users": list})
}

// rejectPasswordFields peeks at the body and refuses any attempt to smuggle a
// credential change through the profile route. The body is restored for the
// real decoder.
func rejectPasswordFields(r *http.Request) error {
	if r.Body == nil {
		return nil
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil
	}
	for _, key := range []string{"password", "passwordConfirm", "passwordCurrent", "newPassword"} {
		if _, ok := probe[key]; ok {
			return pkgerrors.New(pkgerrors.CodeBadRequest, "This route is not for password updates. Please use /updateMyPassword")
		}
	}
	return nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
