package responses

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailquest/trailquest-backend/pkg/config"
	pkgerrors "github.com/trailquest/trailquest-backend/pkg/errors"
	"github.com/trailquest/trailquest-backend/pkg/types"
)

func devApp() config.AppConfig {
	return config.AppConfig{Env: config.AppEnvDev}
}

func prodApp() config.AppConfig {
	return config.AppConfig{Env: config.AppEnvProd}
}

func apiRequest() *http.Request {
	return httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
}

func pageRequest() *http.Request {
	return httptest.NewRequest(http.MethodGet, "/overview", nil)
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) types.ErrorEnvelope {
	t.Helper()
	var body types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteSuccess(rec, http.StatusOK, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusOK, rec.Code)
	var body types.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Empty(t, body.Token)
}

func TestWriteSuccessToken(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteSuccessToken(rec, http.StatusCreated, "signed.jwt.here", nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var body types.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, "signed.jwt.here", body.Token)
}

func TestSetSessionCookie(t *testing.T) {
	rec := httptest.NewRecorder()

	SetSessionCookie(rec, prodApp(), config.JWTConfig{CookieExpirationDays: 90}, "signed.jwt.here")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, "jwt", cookie.Name)
	assert.Equal(t, "signed.jwt.here", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
}

func TestSetSessionCookieNotSecureInDev(t *testing.T) {
	rec := httptest.NewRecorder()

	SetSessionCookie(rec, devApp(), config.JWTConfig{CookieExpirationDays: 90}, "signed.jwt.here")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.False(t, cookies[0].Secure)
}

func TestWriteErrorDevVerbose(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeUnauthenticated, "Incorrect Email or Password")

	WriteError(context.Background(), devApp(), nil, rec, apiRequest(), err)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeErrorBody(t, rec)
	assert.Equal(t, "fail", body.Status)
	assert.Equal(t, "Incorrect Email or Password", body.Message)
	assert.NotEmpty(t, body.Stack)
	assert.NotNil(t, body.Detail)
}

func TestWriteErrorDevVerboseEvenForInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.Wrap(pkgerrors.CodeInternal, assert.AnError, "database exploded")

	WriteError(context.Background(), devApp(), nil, rec, apiRequest(), err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeErrorBody(t, rec)
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, "database exploded", body.Message)
	assert.NotEmpty(t, body.Stack)
}

func TestWriteErrorProdOperational(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeNotFound, "Can't find user with the email: leo@example.com")

	WriteError(context.Background(), prodApp(), nil, rec, apiRequest(), err)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeErrorBody(t, rec)
	assert.Equal(t, "fail", body.Status)
	assert.Equal(t, "Can't find user with the email: leo@example.com", body.Message)
	assert.Empty(t, body.Stack)
	assert.Nil(t, body.Detail)
}

func TestWriteErrorProdNonOperationalIsGeneric(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.Wrap(pkgerrors.CodeInternal, assert.AnError, "database exploded")

	WriteError(context.Background(), prodApp(), nil, rec, apiRequest(), err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeErrorBody(t, rec)
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, "Something went very wrong", body.Message)
	assert.NotContains(t, rec.Body.String(), "database exploded")
	assert.Empty(t, body.Stack)
}

func TestWriteErrorProdUnclassifiedIsGeneric(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteError(context.Background(), prodApp(), nil, rec, apiRequest(), assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeErrorBody(t, rec)
	assert.Equal(t, "Something went very wrong", body.Message)
}

func TestWriteErrorRendersHTMLOutsideAPI(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeNotFound, "Can't find /overview on this server")

	WriteError(context.Background(), prodApp(), nil, rec, pageRequest(), err)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), "Can&#39;t find /overview on this server")
}

func TestWriteErrorProdHTMLNonOperational(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteError(context.Background(), prodApp(), nil, rec, pageRequest(), assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Something went very wrong")
	assert.Contains(t, rec.Body.String(), "Please try again later")
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}
