// tokens реализует выпуск и проверку подписанных токенов сервиса.
//
// Access и refresh токены — это JWT (HS256) с непересекающимися полезными
// нагрузками: access несёт email пользователя, refresh — его числовой id.
// Каждый вид подписывается собственным секретом, поэтому токен одного вида
// никогда не проходит проверку верификатором другого. Ошибки библиотеки
// не покидают пакет: наружу уходят только сентинелы ниже.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"auth-service/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired — срок действия токена истёк.
	ErrExpired = errors.New("token expired")

	// ErrNotYetValid — токен содержит nbf-клейм в будущем.
	ErrNotYetValid = errors.New("token not yet valid")

	// ErrMalformed — любая прочая проблема: битая структура, неверная
	// подпись, чужой issuer/audience или полезная нагрузка не того вида.
	ErrMalformed = errors.New("token malformed")
)

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// Manager — стейтлес-пара issue/verify поверх конфигурации секретов и TTL.
// Экземпляр безопасен для конкурентного использования.
type Manager struct {
	cfg config.AuthConfig
}

// New создаёт Manager из конфигурации аутентификации.
func New(cfg config.AuthConfig) *Manager {
	return &Manager{cfg: cfg}
}

// AccessTTL возвращает срок жизни access-токена.
func (m *Manager) AccessTTL() time.Duration { return m.cfg.AccessTokenTTL }

// RefreshTTL возвращает срок жизни refresh-токена.
func (m *Manager) RefreshTTL() time.Duration { return m.cfg.RefreshTokenTTL }

// IssueAccess выпускает access-токен с полезной нагрузкой {email}.
func (m *Manager) IssueAccess(email string, now time.Time) (string, error) {
	const op = "tokens.IssueAccess"

	claims := accessClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.cfg.Issuer,
			Audience:  jwt.ClaimStrings(m.cfg.Audience),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(m.cfg.AccessSecret))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// IssueRefresh выпускает refresh-токен с полезной нагрузкой {uid}.
func (m *Manager) IssueRefresh(userID int64, now time.Time) (string, error) {
	const op = "tokens.IssueRefresh"

	claims := refreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.RefreshTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.cfg.Issuer,
			Audience:  jwt.ClaimStrings(m.cfg.Audience),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(m.cfg.RefreshSecret))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// VerifyAccess проверяет access-токен и возвращает email из полезной нагрузки.
func (m *Manager) VerifyAccess(tokenStr string) (string, error) {
	const op = "tokens.VerifyAccess"

	var claims accessClaims
	if err := m.verify(tokenStr, m.cfg.AccessSecret, &claims); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	// Refresh-токен, подписанный тем же секретом по ошибке конфигурации,
	// не содержит email — отклоняем по форме нагрузки.
	if claims.Email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrMalformed)
	}

	return claims.Email, nil
}

// VerifyRefresh проверяет refresh-токен и возвращает id пользователя.
func (m *Manager) VerifyRefresh(tokenStr string) (int64, error) {
	const op = "tokens.VerifyRefresh"

	var claims refreshClaims
	if err := m.verify(tokenStr, m.cfg.RefreshSecret, &claims); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if claims.UserID <= 0 {
		return 0, fmt.Errorf("%s: %w", op, ErrMalformed)
	}

	return claims.UserID, nil
}

func (m *Manager) verify(tokenStr, secret string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, ErrMalformed
			}

			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithAudience(m.cfg.Audience...),
	)

	switch {
	case err == nil && token.Valid:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	default:
		return ErrMalformed
	}
}
