// Package urlvalue описывает разобранный URL запроса: схема, хост, путь, строка запроса и фрагмент.
// Разбор никогда не завершается ошибкой: некорректный ввод даёт пустые поля.
package urlvalue

import (
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Parts содержит компоненты URL в сыром (неэкранированном повторно) виде
type Parts struct {
	Scheme   string `json:"scheme,omitempty"`
	Host     string `json:"host,omitempty"`
	Path     string `json:"path,omitempty"`
	Query    string `json:"query,omitempty"`
	Fragment string `json:"fragment,omitempty"`
}

// URL — значение URL с кэшированной строковой формой.
// Нулевое значение соответствует пустому относительному URL.
type URL struct {
	scheme   string
	host     string
	path     string
	query    string
	fragment string
	full     string
}

// Parse разбирает строку на компоненты. Поля, которых нет в raw, остаются пустыми.
func Parse(raw string) URL {
	var u URL
	parsed, err := url.Parse(raw)
	if err == nil {
		u.scheme = parsed.Scheme
		u.host = parsed.Host
		u.path = parsed.EscapedPath()
		if parsed.Opaque != "" {
			u.path = parsed.Opaque
		}
		u.query = parsed.RawQuery
		u.fragment = parsed.EscapedFragment()
	}
	u.full = Build(u.Parts())
	return u
}

// FromParts собирает URL из готовых компонентов
func FromParts(p Parts) URL {
	u := URL{
		scheme:   p.Scheme,
		host:     p.Host,
		path:     p.Path,
		query:    p.Query,
		fragment: p.Fragment,
	}
	u.full = Build(p)
	return u
}

// FromRequest восстанавливает полный URL текущего запроса.
// Схема считается https при TLS, заголовке X-Forwarded-Proto: https или порте 443.
func FromRequest(r *http.Request) URL {
	scheme := "http"
	if isSecure(r) {
		scheme = "https"
	}
	return FromParts(Parts{
		Scheme: scheme,
		Host:   r.Host,
		Path:   r.URL.EscapedPath(),
		Query:  r.URL.RawQuery,
	})
}

func isSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return true
	}
	_, port, err := net.SplitHostPort(r.Host)
	return err == nil && port == "443"
}

// Build собирает строку URL из компонентов.
// Если схема и хост пусты, результат — относительная ссылка из пути.
// Если есть схема, но нет хоста, путь с "//" в начале предваряется пустым authority,
// иначе при повторном разборе его первый сегмент стал бы хостом.
func Build(p Parts) string {
	var b strings.Builder
	if p.Scheme != "" {
		b.WriteString(p.Scheme)
		b.WriteByte(':')
	}
	if p.Host != "" {
		b.WriteString("//")
		b.WriteString(p.Host)
		if p.Path != "" && !strings.HasPrefix(p.Path, "/") {
			b.WriteByte('/')
		}
	} else if p.Scheme != "" && strings.HasPrefix(p.Path, "//") {
		b.WriteString("//")
	}
	b.WriteString(p.Path)
	if p.Query != "" {
		b.WriteByte('?')
		b.WriteString(p.Query)
	}
	if p.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(p.Fragment)
	}
	return b.String()
}

// BuildPath собирает путь из сегментов, при необходимости с завершающим слэшем
func BuildPath(segments []string, trailingSlash bool) string {
	var path string
	if len(segments) > 0 {
		path = "/" + strings.Join(segments, "/")
	}
	if trailingSlash {
		path += "/"
	}
	return path
}

// StripQueryString отрезает строку запроса (и всё после неё) от URL
func StripQueryString(raw string) string {
	before, _, _ := strings.Cut(raw, "?")
	return before
}

func (u URL) Scheme() string   { return u.scheme }
func (u URL) Host() string     { return u.host }
func (u URL) Path() string     { return u.path }
func (u URL) Query() string    { return u.query }
func (u URL) Fragment() string { return u.fragment }

// Hostname возвращает хост без порта и квадратных скобок IPv6
func (u URL) Hostname() string {
	if u.host == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(u.host); err == nil {
		return host
	}
	return strings.TrimSuffix(strings.TrimPrefix(u.host, "["), "]")
}

// IsAbsolute сообщает, заданы ли одновременно схема и хост
func (u URL) IsAbsolute() bool {
	return u.scheme != "" && u.host != ""
}

// Parts возвращает компоненты URL
func (u URL) Parts() Parts {
	return Parts{
		Scheme:   u.scheme,
		Host:     u.host,
		Path:     u.path,
		Query:    u.query,
		Fragment: u.fragment,
	}
}

// Segments возвращает непустые сегменты пути
func (u URL) Segments() []string {
	parts := strings.Split(u.path, "/")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// Segment возвращает сегмент пути по индексу, начиная с нуля
func (u URL) Segment(i int) (string, bool) {
	segments := u.Segments()
	if i < 0 || i >= len(segments) {
		return "", false
	}
	return segments[i], true
}

// HasTrailingSlash проверяет, заканчивается ли путь слэшем
func (u URL) HasTrailingSlash() bool {
	return strings.HasSuffix(u.path, "/")
}

// QueryVars декодирует строку запроса. При повторе ключа побеждает последнее значение,
// ключ без "=" получает пустое значение.
func (u URL) QueryVars() map[string]string {
	vars := make(map[string]string)
	if u.query == "" {
		return vars
	}
	for _, pair := range strings.Split(u.query, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		key = unescape(key)
		if key == "" {
			continue
		}
		vars[key] = unescape(value)
	}
	return vars
}

// QueryVar возвращает значение параметра запроса и признак его наличия
func (u URL) QueryVar(key string) (string, bool) {
	v, ok := u.QueryVars()[key]
	return v, ok
}

// AddQueryVar добавляет или заменяет параметр запроса и возвращает новый URL строкой
func (u *URL) AddQueryVar(key, value string) string {
	vars := u.QueryVars()
	vars[key] = value
	u.query = encodeQuery(vars)
	u.full = Build(u.Parts())
	return u.full
}

// RemoveQueryVar удаляет параметр запроса и возвращает новый URL строкой
func (u *URL) RemoveQueryVar(key string) string {
	vars := u.QueryVars()
	delete(vars, key)
	u.query = encodeQuery(vars)
	u.full = Build(u.Parts())
	return u.full
}

// AddFragment задаёт фрагмент и возвращает новый URL строкой
func (u *URL) AddFragment(value string) string {
	u.fragment = value
	u.full = Build(u.Parts())
	return u.full
}

// String возвращает URL строкой
func (u URL) String() string {
	return u.full
}

func unescape(s string) string {
	if decoded, err := url.QueryUnescape(s); err == nil {
		return decoded
	}
	return s
}

func encodeQuery(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(vars[k]))
	}
	return b.String()
}
