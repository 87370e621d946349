package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/issafronov/siteredirect/internal/app/exclusion"
	"github.com/issafronov/siteredirect/internal/app/models"
	"github.com/issafronov/siteredirect/internal/app/queryparams"
	"github.com/issafronov/siteredirect/internal/app/redirect"
	"github.com/issafronov/siteredirect/internal/app/storage"
	"github.com/issafronov/siteredirect/internal/app/urlvalue"
	"github.com/issafronov/siteredirect/internal/app/utils"
	"github.com/issafronov/siteredirect/internal/metrics"
	"github.com/issafronov/siteredirect/internal/middleware/logger"
	"go.uber.org/zap"
)

const revisionLength = 12

// snapshot — неизменяемая версия настроек вместе с построенным набором исключений
type snapshot struct {
	settings models.Settings
	rules    *exclusion.RuleSet
}

type cacheKey struct {
	revision string
	rawURL   string
	flags    models.RequestFlags
}

type redirectService struct {
	storage  storage.Storage
	engine   *redirect.Engine
	siteURL  string
	validate *validator.Validate

	current atomic.Pointer[snapshot]
	cache   *expirable.LRU[cacheKey, models.Decision]

	// mu упорядочивает сохранения
	mu  sync.Mutex
	now func() time.Time
}

// Option настраивает сервис
type Option func(*redirectService)

// WithEngine задаёт движок с дополнительными правилами
func WithEngine(engine *redirect.Engine) Option {
	return func(s *redirectService) {
		s.engine = engine
	}
}

// WithDecisionCache включает кэш решений; size <= 0 отключает его
func WithDecisionCache(size int, ttl time.Duration) Option {
	return func(s *redirectService) {
		if size <= 0 {
			s.cache = nil
			return
		}
		s.cache = expirable.NewLRU[cacheKey, models.Decision](size, nil, ttl)
	}
}

// WithClock подменяет источник времени
func WithClock(now func() time.Time) Option {
	return func(s *redirectService) {
		s.now = now
	}
}

// NewService создаёт новый экземпляр сервиса.
// До вызова Bootstrap или Reload действуют настройки по умолчанию.
func NewService(store storage.Storage, siteURL string, opts ...Option) Service {
	s := &redirectService{
		storage:  store,
		engine:   redirect.NewEngine(),
		siteURL:  siteURL,
		validate: validator.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.swap(models.DefaultSettings())
	return s
}

// Bootstrap загружает настройки из хранилища, а если их нет, сохраняет seed
func Bootstrap(ctx context.Context, svc Service, seed models.SettingsInput) error {
	err := svc.Reload(ctx)
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	logger.Log.Info("no stored settings, saving initial settings")
	result, err := svc.SaveSettings(ctx, seed)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		logger.Log.Warn("initial settings warning", zap.String("warning", w))
	}
	return nil
}

func (s *redirectService) swap(settings models.Settings) {
	rules := s.engine.RuleSet(settings)
	for _, pattern := range rules.Skipped() {
		logger.Log.Warn("skipping invalid excluded path pattern", zap.String("pattern", pattern))
	}
	s.current.Store(&snapshot{settings: settings, rules: rules})
	if s.cache != nil {
		s.cache.Purge()
	}
}

// Settings возвращает действующие настройки
func (s *redirectService) Settings(ctx context.Context) models.Settings {
	return s.current.Load().settings
}

// Reload перечитывает настройки из хранилища
func (s *redirectService) Reload(ctx context.Context) error {
	settings, err := s.storage.Load(ctx)
	if err != nil {
		return err
	}
	s.swap(settings)
	logger.Log.Info("settings loaded", zap.String("revision", settings.Revision))
	return nil
}

// SaveSettings очищает, проверяет и сохраняет настройки
func (s *redirectService) SaveSettings(ctx context.Context, in models.SettingsInput) (models.SaveResult, error) {
	if err := s.validate.Struct(in); err != nil {
		metrics.SettingsSavesTotal.WithLabelValues("invalid").Inc()
		return models.SaveResult{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.current.Load().settings
	if in.Revision != "" && in.Revision != previous.Revision {
		metrics.SettingsSavesTotal.WithLabelValues("conflict").Inc()
		return models.SaveResult{}, ErrConflict
	}

	settings, warnings := s.sanitize(in, previous)
	settings.Revision = utils.CreateShortKey(revisionLength)
	settings.UpdatedAt = s.now().UTC()

	if err := s.storage.Save(ctx, settings, previous.Revision); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			metrics.SettingsSavesTotal.WithLabelValues("conflict").Inc()
			return models.SaveResult{}, ErrConflict
		}
		metrics.SettingsSavesTotal.WithLabelValues("error").Inc()
		logger.Log.Error("failed to save settings", zap.Error(err))
		return models.SaveResult{}, err
	}

	s.swap(settings)
	metrics.SettingsSavesTotal.WithLabelValues("ok").Inc()
	logger.Log.Info("settings saved",
		zap.String("revision", settings.Revision),
		zap.Bool("enabled", settings.Enabled),
		zap.String("target", settings.TargetURL),
		zap.Int("warnings", len(warnings)),
	)
	return models.SaveResult{Settings: settings, Warnings: warnings}, nil
}

// sanitize приводит входные строки к типизированным настройкам.
// Отброшенные значения не считаются ошибкой и возвращаются предупреждениями.
func (s *redirectService) sanitize(in models.SettingsInput, previous models.Settings) (models.Settings, []string) {
	var warnings []string

	settings := models.Settings{
		Enabled:             redirect.SanitizeBool(in.Enabled),
		RedirectType:        redirect.SanitizeRedirectType(in.RedirectType),
		PreservePath:        previous.PreservePath,
		ExcludedQueryParams: queryparams.Sanitize(in.ExcludedQueryParams),
	}
	if in.PreservePath != nil {
		settings.PreservePath = redirect.SanitizeBool(*in.PreservePath)
	}

	target, warning := redirect.SanitizeTarget(in.TargetURL, s.siteURL)
	settings.TargetURL = target
	if warning != "" {
		metrics.LoopWarningsTotal.Inc()
		logger.Log.Warn("redirect target may loop", zap.String("target", target), zap.String("site", s.siteURL))
		warnings = append(warnings, warning)
	}
	if target == "" && strings.TrimSpace(in.TargetURL) != "" {
		warnings = append(warnings, fmt.Sprintf("target URL %q is not an absolute URL and was discarded", in.TargetURL))
	}
	if settings.Enabled && target == "" {
		warnings = append(warnings, "redirect is enabled but no target URL is set")
	}

	for _, p := range in.ExcludedPaths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		settings.ExcludedPaths = append(settings.ExcludedPaths, p)
	}

	for _, pattern := range in.ExcludedPathPatterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if _, err := exclusion.NewRegexPathRule(pattern); err != nil {
			metrics.SkippedPatternsTotal.Inc()
			warnings = append(warnings, fmt.Sprintf("excluded path pattern %q is invalid and was discarded: %v", pattern, err))
			continue
		}
		settings.ExcludedPathPatterns = append(settings.ExcludedPathPatterns, pattern)
	}

	return settings, warnings
}

// Decide вычисляет решение по текущему снимку настроек
func (s *redirectService) Decide(ctx context.Context, req models.CurrentRequest) models.Decision {
	snap := s.current.Load()

	key := cacheKey{revision: snap.settings.Revision, rawURL: req.RawURL, flags: req.RequestFlags}
	if s.cache != nil {
		if d, ok := s.cache.Get(key); ok {
			metrics.ObserveCache(true)
			metrics.ObserveDecision(d)
			return d
		}
		metrics.ObserveCache(false)
	}

	d := s.engine.DecideWithRules(urlvalue.Parse(req.RawURL), snap.settings, snap.rules, req.RequestFlags)
	if s.cache != nil {
		s.cache.Add(key, d)
	}
	metrics.ObserveDecision(d)
	return d
}

// Ping проверяет доступность хранилища
func (s *redirectService) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}
