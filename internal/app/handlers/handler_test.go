package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/issafronov/siteredirect/internal/app/config"
	"github.com/issafronov/siteredirect/internal/app/handlers"
	"github.com/issafronov/siteredirect/internal/app/models"
	"github.com/issafronov/siteredirect/internal/app/security"
	"github.com/issafronov/siteredirect/internal/app/service"
	"github.com/issafronov/siteredirect/internal/middleware/auth"
	"github.com/issafronov/siteredirect/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	SettingsFunc     func(ctx context.Context) models.Settings
	SaveSettingsFunc func(ctx context.Context, in models.SettingsInput) (models.SaveResult, error)
	DecideFunc       func(ctx context.Context, req models.CurrentRequest) models.Decision
	ReloadFunc       func(ctx context.Context) error
	PingFunc         func(ctx context.Context) error
}

func (m *mockService) Settings(ctx context.Context) models.Settings {
	if m.SettingsFunc != nil {
		return m.SettingsFunc(ctx)
	}
	return models.DefaultSettings()
}

func (m *mockService) SaveSettings(ctx context.Context, in models.SettingsInput) (models.SaveResult, error) {
	if m.SaveSettingsFunc != nil {
		return m.SaveSettingsFunc(ctx, in)
	}
	return models.SaveResult{}, nil
}

func (m *mockService) Decide(ctx context.Context, req models.CurrentRequest) models.Decision {
	if m.DecideFunc != nil {
		return m.DecideFunc(ctx, req)
	}
	return models.NoRedirect(models.ReasonDisabled)
}

func (m *mockService) Reload(ctx context.Context) error {
	if m.ReloadFunc != nil {
		return m.ReloadFunc(ctx)
	}
	return nil
}

func (m *mockService) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		AdminPathPrefix: "/api/admin",
		LoginPath:       "/login",
		AdminPassword:   "pa55",
		SecretKey:       "secret",
		MetricsEnabled:  true,
	}
}

func TestNewHandler(t *testing.T) {
	_, err := handlers.NewHandler(nil, &mockService{})
	assert.Error(t, err)
	_, err = handlers.NewHandler(testConfig(), nil)
	assert.Error(t, err)
}

func TestGetSettingsHandle(t *testing.T) {
	svc := &mockService{
		SettingsFunc: func(ctx context.Context) models.Settings {
			return models.Settings{Enabled: true, TargetURL: "https://other.com", RedirectType: 302, Revision: "abc"}
		},
	}
	h, err := handlers.NewHandler(testConfig(), svc)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.GetSettingsHandle(w, httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var got models.Settings
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "https://other.com", got.TargetURL)
	assert.Equal(t, "abc", got.Revision)
}

func TestUpdateSettingsHandle(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		saveErr    error
		wantStatus int
	}{
		{"ok", `{"enabled":"1","target_url":"https://other.com"}`, nil, http.StatusOK},
		{"json scalars", `{"enabled":1,"target_url":"https://other.com","redirect_type":302}`, nil, http.StatusOK},
		{"bad json", `{`, nil, http.StatusBadRequest},
		{"invalid", `{}`, service.ErrInvalidSettings, http.StatusBadRequest},
		{"conflict", `{"revision":"old"}`, service.ErrConflict, http.StatusConflict},
		{"storage failure", `{}`, errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var received models.SettingsInput
			svc := &mockService{
				SaveSettingsFunc: func(ctx context.Context, in models.SettingsInput) (models.SaveResult, error) {
					received = in
					if tt.saveErr != nil {
						return models.SaveResult{}, tt.saveErr
					}
					return models.SaveResult{
						Settings: models.Settings{Enabled: true, TargetURL: in.TargetURL},
						Warnings: []string{"check me"},
					}, nil
				},
			}
			h, err := handlers.NewHandler(testConfig(), svc)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPut, "/api/admin/settings", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.UpdateSettingsHandle(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				var result models.SaveResult
				require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
				assert.Equal(t, "https://other.com", result.Settings.TargetURL)
				assert.Equal(t, []string{"check me"}, result.Warnings)
				assert.Equal(t, "1", received.Enabled)
			}
		})
	}
}

func TestDecideHandle(t *testing.T) {
	svc := &mockService{
		DecideFunc: func(ctx context.Context, req models.CurrentRequest) models.Decision {
			if req.IsAdminContext {
				return models.NoRedirect(models.ReasonAdminContext)
			}
			return models.Decision{Redirect: true, Location: "https://other.com" + strings.TrimPrefix(req.RawURL, "https://example.com"), Status: 301, Reason: models.ReasonRedirect}
		},
	}
	h, err := handlers.NewHandler(testConfig(), svc)
	require.NoError(t, err)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		want       models.Decision
	}{
		{
			name:       "redirect",
			body:       `{"url":"https://example.com/foo"}`,
			wantStatus: http.StatusOK,
			want:       models.Decision{Redirect: true, Location: "https://other.com/foo", Status: 301, Reason: models.ReasonRedirect},
		},
		{
			name:       "admin flag",
			body:       `{"url":"https://example.com/foo","is_admin_context":true}`,
			wantStatus: http.StatusOK,
			want:       models.NoRedirect(models.ReasonAdminContext),
		},
		{name: "missing url", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "bad json", body: `nope`, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.DecideHandle(w, httptest.NewRequest(http.MethodPost, "/api/admin/decide", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				var got models.Decision
				require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestLoginHandle(t *testing.T) {
	h, err := handlers.NewHandler(testConfig(), &mockService{})
	require.NoError(t, err)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"ok", `{"password":"pa55"}`, http.StatusOK},
		{"wrong password", `{"password":"guess"}`, http.StatusUnauthorized},
		{"empty password", `{"password":""}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.LoginHandle(w, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp models.LoginResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			claims, err := security.ParseJWT(resp.Token, "secret")
			require.NoError(t, err)
			assert.Equal(t, "admin", claims.UserID)

			cookies := w.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.Equal(t, auth.CookieName, cookies[0].Name)
		})
	}
}

func TestLoginHandle_NoPasswordConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.AdminPassword = ""
	h, err := handlers.NewHandler(cfg, &mockService{})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.LoginHandle(w, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"password":"anything"}`)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSiteHandle(t *testing.T) {
	h, err := handlers.NewHandler(testConfig(), &mockService{})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "http://example.com/blog", nil)
	req = testutils.WithTestDecision(req, models.NoRedirect(models.ReasonExcludedPath))
	w := httptest.NewRecorder()
	h.SiteHandle(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "excluded_path", w.Header().Get("X-Redirect-Reason"))
	assert.Contains(t, w.Body.String(), "example.com/blog")
}

func TestRouter(t *testing.T) {
	svc := &mockService{
		DecideFunc: func(ctx context.Context, req models.CurrentRequest) models.Decision {
			if req.IsAdminContext || req.IsLoginEndpoint {
				return models.NoRedirect(models.ReasonAdminContext)
			}
			return models.Decision{Redirect: true, Location: "https://other.com/", Status: 302, Reason: models.ReasonRedirect}
		},
	}
	h, err := handlers.NewHandler(testConfig(), svc)
	require.NoError(t, err)
	router := h.Router(nil)

	token, err := security.GenerateJWT("admin", "secret")
	require.NoError(t, err)

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		token      string
		wantStatus int
	}{
		{"site page redirects", http.MethodGet, "/blog/post", "", "", http.StatusFound},
		{"root redirects", http.MethodGet, "/", "", "", http.StatusFound},
		{"ping is never redirected", http.MethodGet, "/ping", "", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", "", http.StatusOK},
		{"admin without token", http.MethodGet, "/api/admin/settings", "", "", http.StatusUnauthorized},
		{"admin with token", http.MethodGet, "/api/admin/settings", "", token, http.StatusOK},
		{"decide with token", http.MethodPost, "/api/admin/decide", `{"url":"https://example.com/"}`, token, http.StatusOK},
		{"login", http.MethodPost, "/login", `{"password":"pa55"}`, "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, bytes.NewBufferString(tt.body))
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: tt.token})
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
