package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/issafronov/siteredirect/internal/app/models"
	"github.com/issafronov/siteredirect/internal/middleware/logger"
	"go.uber.org/zap"
)

// FileStorage хранит настройки JSON-документом на диске.
// Запись выполняется через временный файл и переименование.
type FileStorage struct {
	mu   sync.Mutex
	path string
}

// NewFileStorage создаёт файловое хранилище; каталог файла создаётся при необходимости
func NewFileStorage(path string) (*FileStorage, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create settings dir: %w", err)
		}
	}
	return &FileStorage{path: path}, nil
}

func (f *FileStorage) Load(ctx context.Context) (models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *FileStorage) Save(ctx context.Context, settings models.Settings, expectedRevision string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.read()
	switch {
	case errors.Is(err, ErrNotFound):
		if expectedRevision != "" {
			return ErrConflict
		}
	case err != nil:
		return err
	case current.Revision != expectedRevision:
		return ErrConflict
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		logger.Log.Info("Failed to marshal settings", zap.Error(err))
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".settings-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		logger.Log.Info("Failed to write settings", zap.String("path", f.path), zap.Error(err))
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}

func (f *FileStorage) Ping(ctx context.Context) error {
	_, err := os.Stat(filepath.Dir(f.path))
	return err
}

func (f *FileStorage) read() (models.Settings, error) {
	return ReadSettingsFile(f.path)
}

// ReadSettingsFile читает документ настроек, ничего не создавая на диске.
// Отсутствующий или пустой файл даёт ErrNotFound.
func ReadSettingsFile(path string) (models.Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.Settings{}, ErrNotFound
	}
	if err != nil {
		return models.Settings{}, err
	}
	if len(data) == 0 {
		return models.Settings{}, ErrNotFound
	}

	var settings models.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return models.Settings{}, fmt.Errorf("decode settings file: %w", err)
	}
	return settings, nil
}
