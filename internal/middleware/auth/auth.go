package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/issafronov/siteredirect/internal/app/contextkeys"
	"github.com/issafronov/siteredirect/internal/app/security"
	"github.com/issafronov/siteredirect/internal/middleware/logger"
	"go.uber.org/zap"
)

// CookieName — имя cookie с токеном администратора
const CookieName = "JWT_TOKEN"

const cookieTTL = time.Hour * 24

// AuthorizationMiddleware пропускает запрос только с действительным токеном администратора.
// Токен берётся из cookie JWT_TOKEN или заголовка Authorization: Bearer.
func AuthorizationMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			tokenString := tokenFromRequest(r)
			if tokenString == "" {
				logger.Log.Debug("AuthorizationMiddleware: no token")
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			claims, err := security.ParseJWT(tokenString, secret)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					logger.Log.Debug("AuthorizationMiddleware: token expired")
				} else {
					logger.Log.Debug("AuthorizationMiddleware: invalid token", zap.Error(err))
				}
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), contextkeys.UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

// SetTokenCookie выдаёт клиенту cookie с токеном
func SetTokenCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(cookieTTL),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
