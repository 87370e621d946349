package redirect

import (
	"strings"

	"github.com/issafronov/siteredirect/internal/app/models"
	"github.com/issafronov/siteredirect/internal/app/urlvalue"
)

// RewriteStep — подключаемое преобразование адреса назначения.
// Шаги выполняются по порядку регистрации; пустой результат отменяет перенаправление.
type RewriteStep func(target string, current urlvalue.URL) string

// BuildTarget вычисляет адрес перенаправления.
// При сохранении пути к адресу назначения добавляется путь текущего запроса
// (ровно через один слэш) и его строка запроса без изменений.
func BuildTarget(settings models.Settings, current urlvalue.URL) string {
	target := settings.TargetURL
	if target == "" || !settings.PreservePath {
		return target
	}

	path := current.Path()
	if path == "" || path == "/" {
		return target
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(target, "/"))
	b.WriteByte('/')
	b.WriteString(strings.TrimLeft(path, "/"))
	if q := current.Query(); q != "" {
		b.WriteByte('?')
		b.WriteString(q)
	}
	return b.String()
}
