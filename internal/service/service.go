// service содержит бизнес-логику auth-сервиса:
// регистрацию/аутентификацию пользователей, выпуск/проверку токенов
// и работу с реестром сессий и хранилищем через интерфейсы из
// пакетов sessions и storage.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданные зависимости потокобезопасны.
//   - Ошибки возвращаются и далее маппятся транспортом на HTTP-статусы
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"

	"auth-service/internal/sessions"
	"auth-service/internal/storage"
	"auth-service/internal/tokens"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна или пользователь не найден.
	// Транспорт: HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — токен (access/refresh) некорректен по формату/подписи
	// или отсутствует в реестре сессий. Транспорт: HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк. Транспорт: HTTP 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrNotAuthorized — аутентифицированный пользователь пытается действовать
	// от чужого имени. Транспорт: HTTP 403.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrEmailTaken — e-mail уже занят другим пользователем. Транспорт: HTTP 409.
	ErrEmailTaken = errors.New("email already taken")

	// ErrInvalidEmail — e-mail имеет некорректный формат. Транспорт: HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidDevice — пустой или некорректный идентификатор устройства.
	// Транспорт: HTTP 400.
	ErrInvalidDevice = errors.New("invalid device")

	// ErrWeakPassword — пароль не удовлетворяет политикам сложности.
	// Транспорт: HTTP 400.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrEmptyPassword — пароль пустой. Транспорт: HTTP 400.
	ErrEmptyPassword = errors.New("password is empty")
)

// Service описывает бизнес-логику auth-сервиса.
type Service struct {
	storage  storage.Storage
	sessions sessions.Registry
	tokens   *tokens.Manager
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, sessions sessions.Registry, tokens *tokens.Manager) *Service {
	return &Service{
		storage:  storage,
		sessions: sessions,
		tokens:   tokens,
	}
}
