package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shelf/internal/httpx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func post(h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return w
}

func TestHTTPHandler_RegisterLoginMe(t *testing.T) {
	handler := NewHTTPHandler(NewService(NewMemoryRepo(), testSecret, time.Hour), zap.NewNop())

	w := post(handler.RegisterUser, "/auth/register", `{"email":"reader@example.com","password":"password1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var env struct {
		Data AuthResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.NotEmpty(t, env.Data.Token)
	assert.NotContains(t, w.Body.String(), `"passwordHash"`)

	w = post(handler.RegisterUser, "/auth/register", `{"email":"reader@example.com","password":"password1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = post(handler.Login, "/auth/login", `{"email":"reader@example.com","password":"nope12345"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(handler.Login, "/auth/login", `{"email":"reader@example.com","password":"password1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	me := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r = r.WithContext(httpx.ContextWithUser(r.Context(), env.Data.User.ID))
	handler.GetCurrentUser(me, r)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), "reader@example.com")
}

func TestHTTPHandler_RegisterValidation(t *testing.T) {
	handler := NewHTTPHandler(NewService(NewMemoryRepo(), testSecret, time.Hour), zap.NewNop())

	tests := []struct {
		name string
		body string
	}{
		{"bad email", `{"email":"not-an-email","password":"password1"}`},
		{"weak password", `{"email":"a@example.com","password":"abcdefgh"}`},
		{"missing fields", `{}`},
		{"malformed", `{"email":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(handler.RegisterUser, "/auth/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHTTPHandler_MeUnknownUser(t *testing.T) {
	handler := NewHTTPHandler(NewService(NewMemoryRepo(), testSecret, time.Hour), zap.NewNop())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r = r.WithContext(httpx.ContextWithUser(r.Context(), "ghost"))
	handler.GetCurrentUser(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
