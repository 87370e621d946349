package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/issafronov/siteredirect/internal/app/contextkeys"
	"github.com/issafronov/siteredirect/internal/app/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "mytestsecret"

func TestAuthorizationMiddleware_NoToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil)
	rr := httptest.NewRecorder()

	handler := AuthorizationMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("Handler should not be called without token")
	}))

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthorizationMiddleware_ValidCookie(t *testing.T) {
	token, err := security.GenerateJWT("admin", testSecret)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{
		Name:  CookieName,
		Value: token,
	})
	rr := httptest.NewRecorder()

	called := false
	handler := AuthorizationMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, "admin", r.Context().Value(contextkeys.UserIDKey))
	}))

	handler.ServeHTTP(rr, req)
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthorizationMiddleware_BearerHeader(t *testing.T) {
	token, err := security.GenerateJWT("admin", testSecret)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	called := false
	AuthorizationMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, req)
	assert.True(t, called)
}

func TestAuthorizationMiddleware_Rejects(t *testing.T) {
	valid, err := security.GenerateJWT("admin", testSecret)
	require.NoError(t, err)
	otherSecret, err := security.GenerateJWT("admin", "goodsecret")
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, security.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
		UserID:           "admin",
		Role:             security.RoleAdmin,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"tampered", valid + "abc"},
		{"wrong signature", otherSecret},
		{"expired", expired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.token})
			rr := httptest.NewRecorder()

			AuthorizationMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("Handler should not be called for invalid token")
			})).ServeHTTP(rr, req)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}

func TestSetTokenCookie(t *testing.T) {
	rr := httptest.NewRecorder()
	SetTokenCookie(rr, "token-value", true)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, "token-value", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
}
