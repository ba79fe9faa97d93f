package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator struct {
	userID string
	name   string
	err    error
}

func (s *stubValidator) ValidateToken(string) (string, string, error) {
	return s.userID, s.name, s.err
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestWrapShapesAPIError(t *testing.T) {
	h := Wrap(func(w http.ResponseWriter, r *http.Request) error {
		return Errorf(http.StatusBadRequest, "chatId param not sent with request")
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/chat", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "chatId param not sent with request", decodeBody(t, rec)["message"])
}

func TestWrapHidesInternalErrors(t *testing.T) {
	h := Wrap(func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("connection reset by peer")
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/user", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", decodeBody(t, rec)["message"])
}

func TestNotFoundBody(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFound(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found - /api/nope", decodeBody(t, rec)["message"])
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	am := NewAuthMiddleware(&stubValidator{})
	h := am.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	am := NewAuthMiddleware(&stubValidator{err: errors.New("token expired")})
	h := am.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareInjectsIdentity(t *testing.T) {
	am := NewAuthMiddleware(&stubValidator{userID: "66f1a2b3c4d5e6f7a8b9c0d1", name: "Jess"})

	var gotID, gotName string
	h := am.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = UserID(r.Context())
		gotName, _ = r.Context().Value(UserNameKey).(string)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "66f1a2b3c4d5e6f7a8b9c0d1", gotID)
	assert.Equal(t, "Jess", gotName)
}

func TestAuthMiddlewareQueryParamFallback(t *testing.T) {
	am := NewAuthMiddleware(&stubValidator{userID: "abc", name: "Sam"})

	called := false
	h := am.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?token=good", nil))

	assert.True(t, called)
}
