package storage

import (
	"context"
	"errors"
	"io"

	"github.com/issafronov/siteredirect/internal/app/config"
	"github.com/issafronov/siteredirect/internal/app/models"
	"github.com/issafronov/siteredirect/internal/middleware/logger"
	"go.uber.org/zap"
)

var (
	// ErrNotFound возвращается, если настройки ещё ни разу не сохранялись
	ErrNotFound = errors.New("settings not found")
	// ErrConflict возвращается, если ожидаемая ревизия не совпала с сохранённой
	ErrConflict = errors.New("settings revision conflict")
)

// Storage хранит настройки перенаправления.
// Save записывает settings, только если текущая ревизия равна expectedRevision
// (пустая строка означает, что настроек ещё нет).
type Storage interface {
	Load(ctx context.Context) (models.Settings, error)
	Save(ctx context.Context, settings models.Settings, expectedRevision string) error
	Ping(ctx context.Context) error
}

// New выбирает хранилище по конфигурации: PostgreSQL, если задан DSN,
// иначе файл, иначе память
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch {
	case cfg.DatabaseDSN != "":
		logger.Log.Info("using postgres storage")
		return NewPostgresStorage(ctx, cfg.DatabaseDSN)
	case cfg.SettingsFilePath != "":
		logger.Log.Info("using file storage", zap.String("path", cfg.SettingsFilePath))
		return NewFileStorage(cfg.SettingsFilePath)
	default:
		logger.Log.Info("using memory storage")
		return NewMemoryStorage(), nil
	}
}

// Close освобождает ресурсы хранилища, если они у него есть
func Close(s Storage) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
