package redirect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/issafronov/siteredirect/internal/app/models"
	"github.com/issafronov/siteredirect/internal/app/urlvalue"
	"golang.org/x/net/idna"
)

// SanitizeTarget проверяет адрес назначения перед сохранением.
// Адрес без схемы или хоста отклоняется (пустой результат). Строка запроса и фрагмент
// отбрасываются. Если хост сайта содержит хост назначения, возвращается предупреждение
// о возможном цикле, но адрес всё равно принимается.
func SanitizeTarget(raw, site string) (clean string, warning string) {
	target := urlvalue.Parse(strings.TrimSpace(raw))
	if !target.IsAbsolute() {
		return "", ""
	}

	clean = urlvalue.Build(urlvalue.Parts{
		Scheme: target.Scheme(),
		Host:   target.Host(),
		Path:   target.Path(),
	})

	siteURL := urlvalue.Parse(strings.TrimSpace(site))
	if LoopRisk(target, siteURL) {
		warning = fmt.Sprintf(
			"redirect target host %q matches this site's host %q: requests may be redirected back to this site",
			target.Hostname(), siteURL.Hostname(),
		)
	}
	return clean, warning
}

// LoopRisk сообщает, содержит ли имя хоста сайта имя хоста назначения.
// Сравнение выполняется по ASCII-форме IDNA без учёта регистра.
func LoopRisk(target, site urlvalue.URL) bool {
	targetHost := asciiHost(target.Hostname())
	siteHost := asciiHost(site.Hostname())
	if targetHost == "" || siteHost == "" {
		return false
	}
	return strings.Contains(siteHost, targetHost)
}

func asciiHost(host string) string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		return ascii
	}
	return host
}

// SanitizeRedirectType приводит значение к 302, только если это ровно 302; иначе 301
func SanitizeRedirectType(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return models.StatusPermanent
	}
	return NormalizeStatus(n)
}

// NormalizeStatus возвращает 302 для 302 (в том числе -302) и 301 для любого другого значения
func NormalizeStatus(status int) int {
	if status == models.StatusTemporary || status == -models.StatusTemporary {
		return models.StatusTemporary
	}
	return models.StatusPermanent
}

// SanitizeBool разбирает флаг из строки хранилища опций.
// Ложью считаются "", "0", "false", "off" и "no"; всё остальное — истина.
func SanitizeBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "0", "false", "off", "no":
		return false
	}
	return true
}
