// Package redirect принимает решение о перенаправлении запроса.
//
// Решение вычисляется чистой функцией от текущего URL, настроек и признаков контекста:
//
//  1. перенаправление выключено — нет перенаправления;
//  2. запрос из админки, на страницу входа или из командной строки — нет перенаправления;
//  3. путь или параметры запроса попадают под исключения — нет перенаправления;
//  4. адрес назначения пуст — нет перенаправления;
//  5. иначе — перенаправление на вычисленный адрес с кодом из настроек.
package redirect

import (
	"github.com/issafronov/siteredirect/internal/app/exclusion"
	"github.com/issafronov/siteredirect/internal/app/models"
	"github.com/issafronov/siteredirect/internal/app/urlvalue"
)

// Engine хранит зарегистрированные расширения. Состояния между запросами нет.
type Engine struct {
	pathRules  []exclusion.PathRule
	queryRules []exclusion.QueryRule
	steps      []RewriteStep
}

// Option настраивает Engine
type Option func(*Engine)

// WithPathRules добавляет правила исключения по пути
func WithPathRules(rules ...exclusion.PathRule) Option {
	return func(e *Engine) {
		e.pathRules = append(e.pathRules, rules...)
	}
}

// WithQueryRules добавляет правила исключения по параметрам запроса
func WithQueryRules(rules ...exclusion.QueryRule) Option {
	return func(e *Engine) {
		e.queryRules = append(e.queryRules, rules...)
	}
}

// WithRewriteSteps добавляет преобразования адреса назначения
func WithRewriteSteps(steps ...RewriteStep) Option {
	return func(e *Engine) {
		e.steps = append(e.steps, steps...)
	}
}

// NewEngine создаёт движок с расширениями
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = NewEngine()

// Decide вычисляет решение движком без расширений
func Decide(current urlvalue.URL, settings models.Settings, flags models.RequestFlags) models.Decision {
	return defaultEngine.Decide(current, settings, flags)
}

// RuleSet строит набор исключений для настроек с учётом зарегистрированных правил
func (e *Engine) RuleSet(settings models.Settings) *exclusion.RuleSet {
	if e == nil {
		return exclusion.NewRuleSet(settings)
	}
	return exclusion.NewRuleSet(settings,
		exclusion.WithPathRules(e.pathRules...),
		exclusion.WithQueryRules(e.queryRules...),
	)
}

// Decide вычисляет решение для текущего URL
func (e *Engine) Decide(current urlvalue.URL, settings models.Settings, flags models.RequestFlags) models.Decision {
	if !settings.Enabled {
		return models.NoRedirect(models.ReasonDisabled)
	}
	return e.DecideWithRules(current, settings, e.RuleSet(settings), flags)
}

// DecideWithRules вычисляет решение с заранее построенным набором исключений.
// Набор должен соответствовать той же версии настроек.
func (e *Engine) DecideWithRules(
	current urlvalue.URL,
	settings models.Settings,
	rules *exclusion.RuleSet,
	flags models.RequestFlags,
) models.Decision {
	if !settings.Enabled {
		return models.NoRedirect(models.ReasonDisabled)
	}

	switch {
	case flags.IsAdminContext:
		return models.NoRedirect(models.ReasonAdminContext)
	case flags.IsLoginEndpoint:
		return models.NoRedirect(models.ReasonLoginEndpoint)
	case flags.IsCLIInvocation:
		return models.NoRedirect(models.ReasonCLI)
	}

	if m, ok := rules.Match(current); ok {
		if m.Kind == exclusion.KindQuery {
			return models.NoRedirect(models.ReasonExcludedQuery)
		}
		return models.NoRedirect(models.ReasonExcludedPath)
	}

	target := BuildTarget(settings, current)
	if e != nil {
		for _, step := range e.steps {
			if target == "" {
				break
			}
			target = step(target, current)
		}
	}
	if target == "" {
		return models.NoRedirect(models.ReasonNoTarget)
	}

	return models.Decision{
		Redirect: true,
		Location: target,
		Status:   NormalizeStatus(settings.RedirectType),
		Reason:   models.ReasonRedirect,
	}
}

// Evaluate разбирает URL запроса и вычисляет решение
func (e *Engine) Evaluate(req models.CurrentRequest, settings models.Settings) models.Decision {
	return e.Decide(urlvalue.Parse(req.RawURL), settings, req.RequestFlags)
}
