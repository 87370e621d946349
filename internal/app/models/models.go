package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Коды перенаправления, которые поддерживает сервис
const (
	StatusPermanent = 301
	StatusTemporary = 302
)

// Settings — конфигурация перенаправления сайта.
// Ядро получает её только для чтения; загрузкой и сохранением занимается хранилище.
type Settings struct {
	Enabled              bool      `json:"enabled"`
	TargetURL            string    `json:"target_url"`
	RedirectType         int       `json:"redirect_type"`
	PreservePath         bool      `json:"preserve_path"`
	ExcludedPaths        []string  `json:"excluded_paths,omitempty"`
	ExcludedQueryParams  string    `json:"excluded_query_params,omitempty"`
	ExcludedPathPatterns []string  `json:"excluded_path_patterns,omitempty"`
	Revision             string    `json:"revision,omitempty"`
	UpdatedAt            time.Time `json:"updated_at,omitempty"`
}

// DefaultSettings возвращает настройки по умолчанию: перенаправление выключено,
// тип 301, путь сохраняется
func DefaultSettings() Settings {
	return Settings{
		RedirectType: StatusPermanent,
		PreservePath: true,
	}
}

// SettingsInput — входные данные формы администратора до приведения типов.
// Булевы значения и тип перенаправления приходят строками, как из хранилища опций.
type SettingsInput struct {
	Enabled              string   `json:"enabled"`
	TargetURL            string   `json:"target_url" validate:"max=2048"`
	RedirectType         string   `json:"redirect_type"`
	PreservePath         *string  `json:"preserve_path,omitempty"`
	ExcludedPaths        []string `json:"excluded_paths,omitempty" validate:"max=100,dive,max=512"`
	ExcludedQueryParams  string   `json:"excluded_query_params,omitempty" validate:"max=2048"`
	ExcludedPathPatterns []string `json:"excluded_path_patterns,omitempty" validate:"max=50,dive,max=512"`
	Revision             string   `json:"revision,omitempty"`
}

// UnmarshalJSON принимает enabled, redirect_type и preserve_path как строками,
// так и JSON-значениями true/false и числами
func (in *SettingsInput) UnmarshalJSON(data []byte) error {
	type plain SettingsInput
	aux := struct {
		*plain
		Enabled      json.RawMessage `json:"enabled"`
		RedirectType json.RawMessage `json:"redirect_type"`
		PreservePath json.RawMessage `json:"preserve_path,omitempty"`
	}{plain: (*plain)(in)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if in.Enabled, err = scalarString(aux.Enabled); err != nil {
		return fmt.Errorf("enabled: %w", err)
	}
	if in.RedirectType, err = scalarString(aux.RedirectType); err != nil {
		return fmt.Errorf("redirect_type: %w", err)
	}
	in.PreservePath = nil
	if len(aux.PreservePath) > 0 && !bytes.Equal(aux.PreservePath, []byte("null")) {
		preserve, err := scalarString(aux.PreservePath)
		if err != nil {
			return fmt.Errorf("preserve_path: %w", err)
		}
		in.PreservePath = &preserve
	}
	return nil
}

// scalarString приводит строку, bool или число JSON к строке
func scalarString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	case '{', '[':
		return "", fmt.Errorf("unexpected JSON value %s", raw)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	return string(raw), nil
}

// SaveResult содержит сохранённые настройки и предупреждения для администратора
type SaveResult struct {
	Settings Settings `json:"settings"`
	Warnings []string `json:"warnings,omitempty"`
}

// RequestFlags — признаки контекста запроса, которые вычисляет хост
type RequestFlags struct {
	IsAdminContext  bool `json:"is_admin_context"`
	IsLoginEndpoint bool `json:"is_login_endpoint"`
	IsCLIInvocation bool `json:"is_cli_invocation"`
}

// CurrentRequest описывает входящий запрос для принятия решения
type CurrentRequest struct {
	RawURL string `json:"raw_url"`
	RequestFlags
}

// Reason указывает, на каком шаге было принято решение
type Reason string

const (
	ReasonRedirect      Reason = "redirect"
	ReasonDisabled      Reason = "disabled"
	ReasonAdminContext  Reason = "admin_context"
	ReasonLoginEndpoint Reason = "login_endpoint"
	ReasonCLI           Reason = "cli"
	ReasonExcludedPath  Reason = "excluded_path"
	ReasonExcludedQuery Reason = "excluded_query"
	ReasonNoTarget      Reason = "no_target"
)

// Decision — результат вычисления: перенаправлять ли запрос и куда
type Decision struct {
	Redirect bool   `json:"redirect"`
	Location string `json:"location,omitempty"`
	Status   int    `json:"status,omitempty"`
	Reason   Reason `json:"reason"`
}

// NoRedirect возвращает отрицательное решение с указанной причиной
func NoRedirect(reason Reason) Decision {
	return Decision{Reason: reason}
}

// LoginRequest — тело запроса на вход администратора
type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// DecideRequest — тело пробного запроса на вычисление решения
type DecideRequest struct {
	URL string `json:"url" validate:"required"`
	RequestFlags
}

// LoginResponse — ответ на успешный вход администратора
type LoginResponse struct {
	Token string `json:"token"`
}
