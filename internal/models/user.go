package models

import "time"

// User — модель пользователя в системе.
// ID — числовой идентификатор из БД; именно он попадает в refresh-токен.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
