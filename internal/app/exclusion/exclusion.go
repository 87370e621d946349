// Package exclusion определяет, какие запросы никогда не перенаправляются:
// служебные пути хоста, служебные параметры запроса и правила из настроек.
package exclusion

import (
	"net/url"
	"strings"

	"github.com/issafronov/siteredirect/internal/app/models"
	"github.com/issafronov/siteredirect/internal/app/queryparams"
	"github.com/issafronov/siteredirect/internal/app/urlvalue"
)

// MarkerParam — служебный параметр, наличие которого отключает перенаправление запроса
const MarkerParam = "siteredirect"

// Встроенные префиксы административных путей хоста; их нельзя отключить настройками
var builtinPaths = []string{
	"/admin",
	"/login",
	"/wp-admin",
	"/wp-json",
	"/wp-login.php",
	"/wp-cron.php",
}

// Встроенные параметры предпросмотра, редактирования и REST; достаточно их присутствия
var builtinQueryParams = []string{
	MarkerParam,
	"customize_changeset_uuid",
	"elementor-preview",
	"fl_builder",
	"preview_id",
	"rest_route",
}

// BuiltinPaths возвращает копию встроенных исключённых путей
func BuiltinPaths() []string {
	return append([]string(nil), builtinPaths...)
}

// BuiltinQueryParams возвращает встроенные исключённые параметры
func BuiltinQueryParams() queryparams.Params {
	params := make(queryparams.Params, len(builtinQueryParams))
	for _, name := range builtinQueryParams {
		params[name] = queryparams.Wildcard()
	}
	return params
}

// EffectivePaths объединяет встроенные и настроенные пути без повторов, сохраняя порядок
func EffectivePaths(settings models.Settings) []string {
	seen := make(map[string]struct{}, len(builtinPaths)+len(settings.ExcludedPaths))
	paths := make([]string, 0, len(builtinPaths)+len(settings.ExcludedPaths))
	for _, p := range append(BuiltinPaths(), settings.ExcludedPaths...) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}
	return paths
}

// EffectiveQueryParams объединяет встроенные и настроенные параметры.
// Настроенное значение заменяет встроенное с тем же именем.
func EffectiveQueryParams(settings models.Settings) queryparams.Params {
	return queryparams.Merge(BuiltinQueryParams(), queryparams.Parse(settings.ExcludedQueryParams))
}

// PathExcluded проверяет, начинается ли путь текущего URL с одного из исключённых путей
// с выравниванием по сегментам: "/a/b" совпадает с "/a/b/c", но не с "/a/bx".
func PathExcluded(current urlvalue.URL, paths []string) bool {
	currentPath := unescapePath(current.Path())
	currentSegments := splitSegments(currentPath)
	for _, p := range paths {
		if pathMatches(currentPath, currentSegments, p) {
			return true
		}
	}
	return false
}

func pathMatches(currentPath string, currentSegments []string, excluded string) bool {
	excludedSegments := splitSegments(unescapePath(excluded))
	if len(excludedSegments) == 0 {
		// исключение "/" относится только к корню сайта
		return len(currentSegments) == 0 && strings.TrimSpace(excluded) != ""
	}
	if !strings.Contains(currentPath, excludedSegments[0]) {
		return false
	}
	if len(excludedSegments) > len(currentSegments) {
		return false
	}
	for i, seg := range excludedSegments {
		if currentSegments[i] != seg {
			return false
		}
	}
	return true
}

// QueryExcluded проверяет, присутствует ли в запросе исключённый параметр
// с подходящим значением. Пустое или отсутствующее ожидаемое значение совпадает с любым.
func QueryExcluded(current urlvalue.URL, params queryparams.Params) bool {
	_, ok := matchQuery(current.QueryVars(), params)
	return ok
}

func matchQuery(vars map[string]string, params queryparams.Params) (string, bool) {
	for _, name := range params.Names() {
		got, present := vars[name]
		if !present {
			continue
		}
		expected := params[name]
		if queryparams.IsWildcard(expected) || got == *expected {
			return name, true
		}
	}
	return "", false
}

func splitSegments(path string) []string {
	parts := strings.Split(path, "/")
	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

func unescapePath(p string) string {
	if decoded, err := url.PathUnescape(p); err == nil {
		return decoded
	}
	return p
}
