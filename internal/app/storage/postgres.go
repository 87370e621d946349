package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/issafronov/siteredirect/internal/app/models"
	"github.com/issafronov/siteredirect/internal/middleware/logger"
	"github.com/issafronov/siteredirect/internal/scripts"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx"
	_ "github.com/jackc/pgx/stdlib"
	"go.uber.org/zap"
)

// PostgresStorage хранит историю настроек в PostgreSQL; актуальна последняя запись
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage подключается к базе и применяет миграции
func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := scripts.RunMigrations(dsn); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgresStorage{db: db}, nil
}

// NewPostgresStorageFromDB оборачивает уже открытое соединение без применения миграций
func NewPostgresStorageFromDB(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close закрывает соединение с базой
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func (s *PostgresStorage) Load(ctx context.Context) (models.Settings, error) {
	var document []byte
	err := s.db.QueryRowContext(
		ctx,
		"SELECT document FROM redirect_settings ORDER BY id DESC LIMIT 1",
	).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Settings{}, ErrNotFound
		}
		return models.Settings{}, err
	}

	var settings models.Settings
	if err := json.Unmarshal(document, &settings); err != nil {
		return models.Settings{}, fmt.Errorf("decode settings row: %w", err)
	}
	return settings, nil
}

func (s *PostgresStorage) Save(ctx context.Context, settings models.Settings, expectedRevision string) error {
	document, err := json.Marshal(settings)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(
		ctx,
		"SELECT revision FROM redirect_settings ORDER BY id DESC LIMIT 1",
	).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if current != expectedRevision {
		return ErrConflict
	}

	updatedAt := settings.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO redirect_settings (
	    revision,
	    parent_revision,
	    document,
	    updated_at
	    )
	VALUES ($1, $2, $3, $4)
	`
	_, err = tx.ExecContext(ctx, query, settings.Revision, expectedRevision, document, updatedAt)
	if err != nil {
		var pgErr pgx.PgError
		if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
			logger.Log.Info("Concurrent settings update", zap.String("revision", expectedRevision))
			return ErrConflict
		}
		return err
	}

	return tx.Commit()
}
