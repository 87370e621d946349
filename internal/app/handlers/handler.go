package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/issafronov/siteredirect/internal/app/config"
	"github.com/issafronov/siteredirect/internal/app/models"
	"github.com/issafronov/siteredirect/internal/app/security"
	"github.com/issafronov/siteredirect/internal/app/service"
	"github.com/issafronov/siteredirect/internal/middleware/auth"
	"github.com/issafronov/siteredirect/internal/middleware/logger"
	redirectmw "github.com/issafronov/siteredirect/internal/middleware/redirect"
	"go.uber.org/zap"
)

const adminUserID = "admin"

// Handler обслуживает API администратора и страницы сайта
type Handler struct {
	config   *config.Config
	service  service.Service
	validate *validator.Validate
}

// NewHandler создаёт обработчики поверх сервиса
func NewHandler(config *config.Config, service service.Service) (*Handler, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if service == nil {
		return nil, errors.New("service is required")
	}
	return &Handler{
		config:   config,
		service:  service,
		validate: validator.New(),
	}, nil
}

// GetSettingsHandle возвращает действующие настройки
func (h *Handler) GetSettingsHandle(res http.ResponseWriter, req *http.Request) {
	writeJSON(res, http.StatusOK, h.service.Settings(req.Context()))
}

// UpdateSettingsHandle сохраняет настройки из формы администратора
func (h *Handler) UpdateSettingsHandle(res http.ResponseWriter, req *http.Request) {
	var in models.SettingsInput
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		logger.Log.Debug("cannot decode settings", zap.Error(err))
		http.Error(res, "invalid JSON body", http.StatusBadRequest)
		return
	}

	result, err := h.service.SaveSettings(req.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSettings):
			http.Error(res, err.Error(), http.StatusBadRequest)
		case errors.Is(err, service.ErrConflict):
			http.Error(res, err.Error(), http.StatusConflict)
		default:
			logger.Log.Error("cannot save settings", zap.Error(err))
			http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(res, http.StatusOK, result)
}

// DecideHandle вычисляет решение для произвольного URL без перенаправления
func (h *Handler) DecideHandle(res http.ResponseWriter, req *http.Request) {
	var in models.DecideRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		http.Error(res, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}

	d := h.service.Decide(req.Context(), models.CurrentRequest{RawURL: in.URL, RequestFlags: in.RequestFlags})
	writeJSON(res, http.StatusOK, d)
}

// LoginHandle проверяет пароль администратора и выдаёт токен
func (h *Handler) LoginHandle(res http.ResponseWriter, req *http.Request) {
	var in models.LoginRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		http.Error(res, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}

	if !security.CheckPassword(in.Password, h.config.AdminPassword) {
		logger.Log.Info("failed admin login", zap.String("remote", req.RemoteAddr))
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	token, err := security.GenerateJWT(adminUserID, h.config.SecretKey)
	if err != nil {
		logger.Log.Error("cannot generate token", zap.Error(err))
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	auth.SetTokenCookie(res, token, h.config.EnableHTTPS)
	writeJSON(res, http.StatusOK, models.LoginResponse{Token: token})
}

// SiteHandle отдаёт страницу сайта, если запрос не был перенаправлен
func (h *Handler) SiteHandle(res http.ResponseWriter, req *http.Request) {
	if d, ok := redirectmw.DecisionFromContext(req.Context()); ok {
		res.Header().Set("X-Redirect-Reason", string(d.Reason))
	}
	res.Header().Set("Content-Type", "text/plain; charset=utf-8")
	res.WriteHeader(http.StatusOK)
	_, _ = res.Write([]byte("Welcome to " + req.Host + req.URL.Path + "\n"))
}

func writeJSON(res http.ResponseWriter, status int, v any) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	if err := json.NewEncoder(res).Encode(v); err != nil {
		logger.Log.Info("cannot encode response", zap.Error(err))
	}
}
