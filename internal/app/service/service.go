package service

import (
	"context"
	"errors"

	"github.com/issafronov/siteredirect/internal/app/models"
)

var (
	// ErrConflict возвращается, если настройки изменились после того, как их прочитал администратор
	ErrConflict = errors.New("settings were changed concurrently")
	// ErrInvalidSettings возвращается, если входные данные формы не прошли проверку
	ErrInvalidSettings = errors.New("invalid settings")
)

// Service определяет бизнес-логику перенаправления сайта
type Service interface {
	// Settings возвращает действующие настройки
	Settings(ctx context.Context) models.Settings

	// SaveSettings очищает, проверяет и сохраняет настройки из формы администратора
	SaveSettings(ctx context.Context, in models.SettingsInput) (models.SaveResult, error)

	// Decide вычисляет решение для входящего запроса
	Decide(ctx context.Context, req models.CurrentRequest) models.Decision

	// Reload перечитывает настройки из хранилища
	Reload(ctx context.Context) error

	// Ping проверяет доступность хранилища
	Ping(ctx context.Context) error
}
