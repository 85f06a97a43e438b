package responses

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/trailquest/trailquest-backend/pkg/config"
	pkgerrors "github.com/trailquest/trailquest-backend/pkg/errors"
	"github.com/trailquest/trailquest-backend/pkg/logger"
	"github.com/trailquest/trailquest-backend/pkg/types"
)

const sessionCookieName = "jwt"

// WriteSuccess renders the uniform success envelope.
func WriteSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.Envelope{Status: "success", Data: data})
}

// WriteSuccessToken renders a success envelope carrying a session token.
func WriteSuccessToken(w http.ResponseWriter, status int, token string, data any) {
	writeJSON(w, status, types.Envelope{Status: "success", Token: token, Data: data})
}

// WriteSuccessMessage renders a success envelope carrying only a message.
func WriteSuccessMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, types.Envelope{Status: "success", Message: message})
}

// SetSessionCookie mirrors the session token into an HTTP-only cookie so
// browser clients need no manual header management. The Secure flag is set
// only in production deployments.
func SetSessionCookie(w http.ResponseWriter, app config.AppConfig, jwtCfg config.JWTConfig, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(jwtCfg.CookieExpiration()),
		HttpOnly: true,
		Secure:   app.IsProd(),
		SameSite: http.SameSiteLaxMode,
	})
}

// WriteError is the single terminal point for every failure in the system.
// It classifies the error into the operational taxonomy, picks verbose or
// safe rendering by deployment mode, and emits JSON for /api requests or an
// HTML error view for page requests.
func WriteError(ctx context.Context, app config.AppConfig, logg *logger.Logger, w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.Classify(err)
	meta := pkgerrors.MetadataFor(typed.Code())

	logError(ctx, logg, err, typed)

	isAPI := r != nil && strings.HasPrefix(r.URL.Path, "/api")

	if !app.IsProd() {
		writeVerbose(w, isAPI, typed, meta, err)
		return
	}
	writeSafe(w, isAPI, typed, meta)
}

func logError(ctx context.Context, logg *logger.Logger, err error, typed *pkgerrors.Error) {
	if logg == nil {
		return
	}
	dump := pkgerrors.Dump(err)
	ctx = logg.WithFields(ctx, map[string]any{
		"error":         dump.TopMessage,
		"error_code":    typed.Code(),
		"error_chain":   dump.Chain,
		"operational":   typed.Operational(),
		"pg_code":       dump.PGCode,
		"pg_detail":     dump.PGDetail,
		"pg_constraint": dump.PGConstraint,
	})
	if typed.Operational() {
		logg.Warn(ctx, "request.failed")
		return
	}
	logg.Error(ctx, "request.error", err)
}

// writeVerbose always exposes the message, the full internal error dump and a
// stack trace, regardless of the operational flag. Development only.
func writeVerbose(w http.ResponseWriter, isAPI bool, typed *pkgerrors.Error, meta pkgerrors.Metadata, cause error) {
	if !isAPI {
		writeErrorPage(w, meta.HTTPStatus, "Something went wrong", typed.Message())
		return
	}
	writeJSON(w, meta.HTTPStatus, types.ErrorEnvelope{
		Status:  meta.Status,
		Message: typed.Message(),
		Detail:  pkgerrors.Dump(cause),
		Stack:   strings.TrimSpace(string(debug.Stack())),
	})
}

// writeSafe exposes {status, message} for operational errors and a generic
// 500 for everything else. Internals never leak.
func writeSafe(w http.ResponseWriter, isAPI bool, typed *pkgerrors.Error, meta pkgerrors.Metadata) {
	if typed.Operational() {
		if !isAPI {
			writeErrorPage(w, meta.HTTPStatus, "Something went wrong!", typed.Message())
			return
		}
		writeJSON(w, meta.HTTPStatus, types.ErrorEnvelope{
			Status:  meta.Status,
			Message: typed.Message(),
		})
		return
	}

	if !isAPI {
		writeErrorPage(w, http.StatusInternalServerError, "Something went very wrong", "Please try again later")
		return
	}
	writeJSON(w, http.StatusInternalServerError, types.ErrorEnvelope{
		Status:  "error",
		Message: "Something went very wrong",
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Msg}}</p>
</body>
</html>
`))

func writeErrorPage(w http.ResponseWriter, status int, title, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := errorPage.Execute(w, struct{ Title, Msg string }{Title: title, Msg: msg}); err != nil {
		log.Printf(`{"level":"error","msg":"failed to render error page","err":"%v"}`, err)
	}
}
