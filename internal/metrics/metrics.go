package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/issafronov/siteredirect/internal/app/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Отдельный реестр, чтобы не смешивать метрики сервиса с глобальными
var registry = prometheus.NewRegistry()

var (
	// DecisionsTotal считает решения по результату и причине
	DecisionsTotal = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "siteredirect_decisions_total",
			Help: "Total number of redirect decisions",
		},
		[]string{"outcome", "reason", "status"},
	)

	// DecisionCacheTotal считает обращения к кэшу решений
	DecisionCacheTotal = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "siteredirect_decision_cache_total",
			Help: "Decision cache lookups",
		},
		[]string{"result"},
	)

	// SettingsSavesTotal считает попытки сохранения настроек
	SettingsSavesTotal = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "siteredirect_settings_saves_total",
			Help: "Settings save attempts by result",
		},
		[]string{"result"},
	)

	// LoopWarningsTotal считает сохранения с предупреждением о возможной петле
	LoopWarningsTotal = promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "siteredirect_loop_warnings_total",
			Help: "Saved targets that may redirect back to the site",
		},
	)

	// SkippedPatternsTotal считает отброшенные при компиляции шаблоны путей
	SkippedPatternsTotal = promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "siteredirect_skipped_patterns_total",
			Help: "Excluded path patterns that failed to compile",
		},
	)
)

var initOnce sync.Once

// Initialize регистрирует стандартные коллекторы процесса и рантайма
func Initialize() {
	initOnce.Do(func() {
		registry.MustRegister(
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewGoCollector(),
		)
	})
}

// Handler отдаёт метрики в формате Prometheus
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// Gatherer возвращает реестр метрик сервиса
func Gatherer() prometheus.Gatherer {
	return registry
}

// ObserveDecision учитывает решение о перенаправлении
func ObserveDecision(d models.Decision) {
	outcome := "pass"
	status := ""
	if d.Redirect {
		outcome = "redirect"
		status = strconv.Itoa(d.Status)
	}
	DecisionsTotal.WithLabelValues(outcome, string(d.Reason), status).Inc()
}

// ObserveCache учитывает попадание или промах кэша решений
func ObserveCache(hit bool) {
	if hit {
		DecisionCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	DecisionCacheTotal.WithLabelValues("miss").Inc()
}
