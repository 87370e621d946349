package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/issafronov/siteredirect/internal/app/handlers"
	"github.com/stretchr/testify/assert"
)

func TestPing_Success(t *testing.T) {
	svc := &mockService{
		PingFunc: func(ctx context.Context) error {
			return nil
		},
	}

	h, _ := handlers.NewHandler(testConfig(), svc)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()

	h.Ping(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestPing_Failure(t *testing.T) {
	svc := &mockService{
		PingFunc: func(ctx context.Context) error {
			return errors.New("db connection failed")
		},
	}

	h, _ := handlers.NewHandler(testConfig(), svc)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()

	h.Ping(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
}
