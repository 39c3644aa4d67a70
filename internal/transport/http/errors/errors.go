// errors стандартизирует ответы об ошибках HTTP-слоя auth-сервиса.
// На вход он принимает ошибку сервисного слоя (сентинелы пакета service),
// а на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Любая не классифицированная ошибка (недоступность БД/Redis, таймауты
// драйверов) схлопывается в 500/internal: подробности остаются в логах.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"auth-service/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// ErrInvalidBody — тело запроса не разобралось (битый JSON, лишние поля).
var ErrInvalidBody = errors.New("invalid request body")

// APIError — единый формат для клиентов.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку сервисного слоя в HTTP-статус и
// унифицированный ответ.
//
// Поведение:
//   - err == nil - это программная ошибка вызова: возвращаем 500/internal,
//     чтобы не послать "200 OK" с телом ошибки и не маскировать баг.
//   - известный сентинел - маппится по таблице ниже;
//   - прочее - 500/internal (без утечки деталей).
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := classify(err)
	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// classify — таблица маппинга сентинелов сервиса на HTTP/код/сообщение:
//   - битые входные данные (email/device/пароль/тело) -> 400
//   - неверные учетные данные и любые проблемы с токеном -> 401
//     (истёкший и отозванный токены для клиента неразличимы по статусу)
//   - действия от чужого имени -> 403
//   - конфликт уникальности email -> 409
//   - Canceled -> 499 (клиент закрыл соединение)
//   - DeadlineExceeded -> 504 (исчерпан бюджет запроса)
//   - прочее -> 500/internal
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, ErrInvalidBody),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidDevice),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrEmptyPassword):
		return http.StatusBadRequest, "invalid_argument", safeMessage(err, "invalid argument")

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, "unauthenticated", "unauthenticated"

	case errors.Is(err, service.ErrNotAuthorized):
		return http.StatusForbidden, "permission_denied", "permission denied"

	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "already_exists", "email already taken"

	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"

	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}

// safeMessage достает текст известного сентинела из цепочки обёрток.
// Для 400-х ошибок текст сентинела безопасен и полезен клиенту.
func safeMessage(err error, fallback string) string {
	for _, sentinel := range []error{
		ErrInvalidBody,
		service.ErrInvalidEmail,
		service.ErrInvalidDevice,
		service.ErrWeakPassword,
		service.ErrEmptyPassword,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return fallback
}
