package models

import "time"

// TokenPair — пара токенов, выдаваемая при аутентификации/регистрации.
//
// Описание:
//   - AccessToken — короткоживущий JWT для доступа к API, несёт email;
//   - RefreshToken — долгоживущий JWT для выпуска новых access-токенов,
//     несёт числовой id пользователя; его «живость» определяет реестр
//     сессий, а не только собственная подпись;
//   - AccessExpiresAt — момент истечения access-токена (UTC).
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
}
