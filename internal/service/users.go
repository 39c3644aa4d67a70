package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"auth-service/internal/models"
	"auth-service/internal/storage"
)

// User возвращает профиль пользователя по email из подтверждённого
// access-токена. Отсутствие записи означает, что токен пережил аккаунт.
func (s *Service) User(ctx context.Context, email string) (*models.User, error) {
	const op = "service.users.User"

	user, err := s.storage.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UpdateUser меняет пароль пользователя. authEmail — личность из
// access-токена; email — учетная запись, которую просят изменить
// (пустая строка означает свою). Попытка изменить чужую учетную
// запись отклоняется без раскрытия её существования.
func (s *Service) UpdateUser(ctx context.Context, authEmail, email, newPassword string) (*models.User, error) {
	const op = "service.users.UpdateUser"

	target := strings.ToLower(strings.TrimSpace(authEmail))
	if email != "" {
		requested, err := validateEmail(email)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
		}

		if requested != target {
			return nil, fmt.Errorf("%s: %w", op, ErrNotAuthorized)
		}
	}

	if err := validatePassword(newPassword); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByEmail(ctx, target)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hashedPassword, err := hashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user.PasswordHash = hashedPassword
	user.UpdatedAt = time.Now().UTC()

	if err := s.storage.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// ListUsers возвращает всех пользователей.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	const op = "service.users.ListUsers"

	users, err := s.storage.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}
