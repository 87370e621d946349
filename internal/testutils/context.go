package testutils

import (
	"context"
	"net/http"

	"github.com/issafronov/siteredirect/internal/app/contextkeys"
	"github.com/issafronov/siteredirect/internal/app/models"
)

func WithTestUserContext(r *http.Request, userID string) *http.Request {
	ctx := context.WithValue(r.Context(), contextkeys.UserIDKey, userID)
	return r.WithContext(ctx)
}

func WithTestDecision(r *http.Request, d models.Decision) *http.Request {
	ctx := context.WithValue(r.Context(), contextkeys.DecisionKey, d)
	return r.WithContext(ctx)
}
