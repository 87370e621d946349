// Package queryparams разбирает и сериализует списки параметров запроса вида
// "name" или "name=value", разделённые запятыми.
package queryparams

import (
	"sort"
	"strings"
)

// Params отображает имя параметра на ожидаемое значение.
// nil означает «любое значение», пустая строка — явно пустое значение.
type Params map[string]*string

// Value возвращает указатель на значение для заполнения Params
func Value(v string) *string {
	return &v
}

// Wildcard возвращает маркер «любое значение»
func Wildcard() *string {
	return nil
}

// IsWildcard сообщает, совпадает ли правило с любым значением параметра.
// Пустое ожидаемое значение тоже считается подстановкой.
func IsWildcard(v *string) bool {
	return v == nil || *v == ""
}

// Parse разбирает строку, разделённую запятыми
func Parse(spec string) Params {
	if strings.TrimSpace(spec) == "" {
		return Params{}
	}
	return ParseList(strings.Split(spec, ","))
}

// ParseList разбирает уже разделённые элементы. Каждый элемент делится по первому "=".
func ParseList(elements []string) Params {
	params := make(Params, len(elements))
	for _, el := range elements {
		el = strings.TrimSpace(el)
		if el == "" {
			continue
		}
		name, value, found := strings.Cut(el, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !found {
			params[name] = nil
			continue
		}
		params[name] = Value(strings.TrimSpace(value))
	}
	return params
}

// Serialize выполняет обратное преобразование. Имена сортируются для детерминированного вывода.
func Serialize(params Params) string {
	names := params.Names()
	items := make([]string, 0, len(names))
	for _, name := range names {
		v := params[name]
		if IsWildcard(v) {
			items = append(items, name)
			continue
		}
		items = append(items, name+"="+*v)
	}
	return strings.Join(items, ",")
}

// Names возвращает отсортированные имена параметров
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge возвращает объединение наборов; при совпадении имени побеждает последний набор
func Merge(sets ...Params) Params {
	merged := make(Params)
	for _, set := range sets {
		for name, v := range set {
			merged[name] = v
		}
	}
	return merged
}

// SanitizeToken обрезает пробелы и удаляет символы вне [0-9a-zA-Z_\-+\[\]=%]
func SanitizeToken(token string) string {
	token = strings.TrimSpace(token)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			return r
		case strings.ContainsRune("_-+[]=%", r):
			return r
		}
		return -1
	}, token)
}

// SanitizeParams очищает каждое имя и значение; параметры с пустым после очистки именем отбрасываются
func SanitizeParams(params Params) Params {
	clean := make(Params, len(params))
	for name, v := range params {
		name = SanitizeToken(name)
		if name == "" {
			continue
		}
		if v == nil {
			clean[name] = nil
			continue
		}
		clean[name] = Value(SanitizeToken(*v))
	}
	return clean
}

// Sanitize приводит строку настроек к каноническому виду
func Sanitize(spec string) string {
	return Serialize(SanitizeParams(Parse(spec)))
}
