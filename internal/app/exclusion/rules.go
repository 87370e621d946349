package exclusion

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/issafronov/siteredirect/internal/app/models"
	"github.com/issafronov/siteredirect/internal/app/queryparams"
	"github.com/issafronov/siteredirect/internal/app/urlvalue"
)

// Kind — тип сработавшего исключения
type Kind string

const (
	KindPath  Kind = "path"
	KindQuery Kind = "query"
)

// PathRule — подключаемое правило исключения по пути
type PathRule interface {
	Name() string
	MatchPath(current urlvalue.URL) bool
}

// QueryRule — подключаемое правило исключения по параметрам запроса
type QueryRule interface {
	Name() string
	MatchQuery(current urlvalue.URL) bool
}

// PathRuleFunc позволяет использовать функцию как PathRule
type PathRuleFunc struct {
	RuleName string
	Fn       func(current urlvalue.URL) bool
}

func (f PathRuleFunc) Name() string                       { return f.RuleName }
func (f PathRuleFunc) MatchPath(current urlvalue.URL) bool { return f.Fn(current) }

// QueryRuleFunc позволяет использовать функцию как QueryRule
type QueryRuleFunc struct {
	RuleName string
	Fn       func(current urlvalue.URL) bool
}

func (f QueryRuleFunc) Name() string                        { return f.RuleName }
func (f QueryRuleFunc) MatchQuery(current urlvalue.URL) bool { return f.Fn(current) }

// Match описывает правило, которое запретило перенаправление
type Match struct {
	Kind Kind
	Rule string
}

// RuleSet — набор исключений для одной версии настроек.
// После создания не изменяется и безопасен для параллельного использования.
type RuleSet struct {
	paths      []string
	params     queryparams.Params
	pathRules  []PathRule
	queryRules []QueryRule
	skipped    []string
}

// Option настраивает RuleSet
type Option func(*RuleSet)

// WithPathRules регистрирует дополнительные правила по пути; они проверяются после встроенных
func WithPathRules(rules ...PathRule) Option {
	return func(rs *RuleSet) {
		rs.pathRules = append(rs.pathRules, rules...)
	}
}

// WithQueryRules регистрирует дополнительные правила по параметрам запроса
func WithQueryRules(rules ...QueryRule) Option {
	return func(rs *RuleSet) {
		rs.queryRules = append(rs.queryRules, rules...)
	}
}

// NewRuleSet строит набор исключений из настроек.
// Некорректные регулярные выражения пропускаются и доступны через Skipped.
func NewRuleSet(settings models.Settings, opts ...Option) *RuleSet {
	rs := &RuleSet{
		paths:  EffectivePaths(settings),
		params: EffectiveQueryParams(settings),
	}
	for _, pattern := range settings.ExcludedPathPatterns {
		rule, err := NewRegexPathRule(pattern)
		if err != nil {
			rs.skipped = append(rs.skipped, pattern)
			continue
		}
		rs.pathRules = append(rs.pathRules, rule)
	}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

// Paths возвращает действующие исключённые пути
func (rs *RuleSet) Paths() []string {
	return append([]string(nil), rs.paths...)
}

// QueryParams возвращает действующие исключённые параметры
func (rs *RuleSet) QueryParams() queryparams.Params {
	return queryparams.Merge(rs.params)
}

// Skipped возвращает шаблоны, которые не удалось скомпилировать
func (rs *RuleSet) Skipped() []string {
	return rs.skipped
}

// Match возвращает первое сработавшее исключение. Безопасен для nil.
func (rs *RuleSet) Match(current urlvalue.URL) (Match, bool) {
	if rs == nil {
		return Match{}, false
	}

	currentPath := unescapePath(current.Path())
	currentSegments := splitSegments(currentPath)
	for _, p := range rs.paths {
		if pathMatches(currentPath, currentSegments, p) {
			return Match{Kind: KindPath, Rule: p}, true
		}
	}
	for _, rule := range rs.pathRules {
		if rule.MatchPath(current) {
			return Match{Kind: KindPath, Rule: rule.Name()}, true
		}
	}

	if name, ok := matchQuery(current.QueryVars(), rs.params); ok {
		return Match{Kind: KindQuery, Rule: name}, true
	}
	for _, rule := range rs.queryRules {
		if rule.MatchQuery(current) {
			return Match{Kind: KindQuery, Rule: rule.Name()}, true
		}
	}

	return Match{}, false
}

// Excluded сообщает, запрещено ли перенаправление для URL
func (rs *RuleSet) Excluded(current urlvalue.URL) bool {
	_, ok := rs.Match(current)
	return ok
}

// regexMatchTimeout ограничивает время проверки одного шаблона
const regexMatchTimeout = 50 * time.Millisecond

// RegexPathRule исключает пути, совпадающие с регулярным выражением
type RegexPathRule struct {
	regex *regexp2.Regexp
}

// NewRegexPathRule компилирует шаблон пути
func NewRegexPathRule(pattern string) (*RegexPathRule, error) {
	regex, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("compile path pattern %q: %w", pattern, err)
	}
	regex.MatchTimeout = regexMatchTimeout
	return &RegexPathRule{regex: regex}, nil
}

func (r *RegexPathRule) Name() string {
	return "regex:" + r.regex.String()
}

// MatchPath проверяет путь; ошибка сопоставления (например, таймаут) считается несовпадением
func (r *RegexPathRule) MatchPath(current urlvalue.URL) bool {
	matched, err := r.regex.MatchString(unescapePath(current.Path()))
	return err == nil && matched
}
