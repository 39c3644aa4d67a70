package storage

import (
	"context"
	"errors"

	"auth-service/internal/models"
)

var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
// Недоступность БД возвращается как есть (обёрнутая ошибка драйвера);
// на границе сервиса она трактуется как внутренняя, не как ошибка валидации.
type UserStorage interface {
	// SaveUser создает нового пользователя; заполняет user.ID из БД.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя по числовому id.
	UserByID(ctx context.Context, id int64) (*models.User, error)
	// UpdateUser обновляет хэш пароля пользователя.
	UpdateUser(ctx context.Context, user *models.User) error
	// ListUsers возвращает всех пользователей в порядке создания.
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Storage задает контракт работы с БД.
type Storage interface {
	UserStorage
	Close()
}
