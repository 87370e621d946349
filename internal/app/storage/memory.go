package storage

import (
	"context"
	"sync"

	"github.com/issafronov/siteredirect/internal/app/models"
)

// MemoryStorage хранит настройки в памяти процесса
type MemoryStorage struct {
	mu       sync.RWMutex
	settings *models.Settings
}

// NewMemoryStorage создаёт пустое хранилище в памяти
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load(ctx context.Context) (models.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.settings == nil {
		return models.Settings{}, ErrNotFound
	}
	return cloneSettings(*m.settings), nil
}

func (m *MemoryStorage) Save(ctx context.Context, settings models.Settings, expectedRevision string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if currentRevision(m.settings) != expectedRevision {
		return ErrConflict
	}
	s := cloneSettings(settings)
	m.settings = &s
	return nil
}

func (m *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func currentRevision(s *models.Settings) string {
	if s == nil {
		return ""
	}
	return s.Revision
}

// cloneSettings копирует срезы, чтобы вызывающий код не мог изменить сохранённое значение
func cloneSettings(s models.Settings) models.Settings {
	if s.ExcludedPaths != nil {
		s.ExcludedPaths = append([]string(nil), s.ExcludedPaths...)
	}
	if s.ExcludedPathPatterns != nil {
		s.ExcludedPathPatterns = append([]string(nil), s.ExcludedPathPatterns...)
	}
	return s
}
