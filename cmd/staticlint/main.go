/*
Package staticlint запускает кастомный multichecker, состоящий из следующих анализаторов:

1. Стандартные анализаторы:
  - printf, structtag, errorsas, sortslice, httpresponse, shadow

2. Анализаторы Staticcheck (https://staticcheck.io):
  - Все SA-анализаторы (предупреждения об ошибках)
  - S1000 из класса simple (упрощение кода)

3. Сторонние анализаторы:
  - asciicheck: запрещает использование не-ASCII символов в идентификаторах

4. Собственный анализатор:
  - noosexit: запрещает прямой вызов os.Exit и log.Fatal внутри main функции пакета main.

Запуск:

	go run ./cmd/staticlint ./...

Вывод будет содержать список всех проблем, найденных анализаторами.
*/
package main

import (
	"strings"

	"github.com/issafronov/siteredirect/cmd/staticlint/noosexit"
	"github.com/tdakkota/asciicheck"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"

	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/sortslice"
	"golang.org/x/tools/go/analysis/passes/structtag"

	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
)

// analyzers собирает набор анализаторов без повторов по имени
func analyzers() []*analysis.Analyzer {
	var result []*analysis.Analyzer
	seen := make(map[string]bool)
	add := func(a *analysis.Analyzer) {
		if seen[a.Name] {
			return
		}
		result = append(result, a)
		seen[a.Name] = true
	}

	for _, a := range []*analysis.Analyzer{
		printf.Analyzer,
		structtag.Analyzer,
		errorsas.Analyzer,
		sortslice.Analyzer,
		httpresponse.Analyzer,
		shadow.Analyzer,
	} {
		add(a)
	}

	for _, a := range staticcheck.Analyzers {
		if strings.HasPrefix(a.Analyzer.Name, "SA") {
			add(a.Analyzer)
		}
	}
	for _, a := range simple.Analyzers {
		if a.Analyzer.Name == "S1000" {
			add(a.Analyzer)
		}
	}

	add(asciicheck.NewAnalyzer())
	add(noosexit.Analyzer)
	return result
}

func main() {
	multichecker.Main(analyzers()...)
}
