package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"auth-service/internal/models"
	logctx "auth-service/internal/pkg/log"
	"auth-service/internal/pkg/redact"
	"auth-service/internal/storage"
	"auth-service/internal/tokens"

	"golang.org/x/crypto/bcrypt"
)

// RegisterUser регистрирует нового пользователя и сразу выполняет вход
// с указанного устройства (пара токенов + сессия в реестре).
func (s *Service) RegisterUser(ctx context.Context, device, email, password string) (*models.TokenPair, error) {
	const op = "service.auth.RegisterUser"

	if strings.TrimSpace(device) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidDevice)
	}

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if err := validatePassword(password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.storage.UserByEmail(ctx, normEmail)
	if err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		Email:        normEmail,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issueTokenPair(ctx, user, device)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, nil
}

// Login выполняет вход по email+пароль с указанного устройства.
// Новая сессия затирает предыдущую сессию того же устройства.
func (s *Service) Login(ctx context.Context, device, email, password string) (*models.TokenPair, error) {
	const op = "service.auth.Login"

	if strings.TrimSpace(device) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidDevice)
	}

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if len(password) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		// Неизвестный email и неверный пароль неразличимы для клиента.
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, password) {
		logctx.From(ctx).Warn("login_rejected",
			slog.String("email", redact.Email(normEmail)),
			slog.String("device", device))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.issueTokenPair(ctx, user, device)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logctx.From(ctx).Info("login_ok",
		slog.String("email", redact.Email(user.Email)),
		slog.String("device", device))

	return pair, nil
}

// Renew выпускает новый access-токен по действующему refresh-токену.
// Refresh-токен не ротируется и срок его сессии не продлевается: клиент
// продолжает пользоваться тем же refresh до истечения TTL сессии.
// Криптографически валидный refresh, отсутствующий в реестре сессий
// (logout или вытеснение новым входом с того же устройства), отклоняется.
func (s *Service) Renew(ctx context.Context, refreshToken string) (string, error) {
	const op = "service.auth.Renew"

	userID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapTokenErr(err))
	}

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	live, err := s.sessions.ListDevices(ctx, user.Email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	active := false
	for _, token := range live {
		if token == refreshToken {
			active = true
			break
		}
	}
	if !active {
		logctx.From(ctx).Warn("renew_rejected_no_session",
			slog.String("email", redact.Email(user.Email)))
		return "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	access, err := s.tokens.IssueAccess(user.Email, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return access, nil
}

// Logout отзывает все сессии пользователя на всех устройствах.
// Повторный выход — no-op, не ошибка.
func (s *Service) Logout(ctx context.Context, email string) error {
	const op = "service.auth.Logout"

	norm := strings.ToLower(strings.TrimSpace(email))
	if err := s.sessions.RevokeAll(ctx, norm); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	logctx.From(ctx).Info("logout_ok", slog.String("email", redact.Email(norm)))

	return nil
}

// ValidateAccess проверяет access-токен и возвращает email его владельца.
func (s *Service) ValidateAccess(ctx context.Context, accessToken string) (string, error) {
	const op = "service.auth.ValidateAccess"

	email, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapTokenErr(err))
	}

	return email, nil
}

// issueTokenPair выпускает пару access+refresh и регистрирует сессию
// устройства в реестре. Ошибка записи в реестр валит всю операцию:
// частично выполненный вход не отдается клиенту.
func (s *Service) issueTokenPair(ctx context.Context, user *models.User, device string) (*models.TokenPair, error) {
	const op = "service.auth.issueTokenPair"

	now := time.Now().UTC()

	accessToken, err := s.tokens.IssueAccess(user.Email, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := s.tokens.IssueRefresh(user.ID, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.sessions.Put(ctx, user.Email, device, refreshToken, s.tokens.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessExpiresAt: now.Add(s.tokens.AccessTTL()),
	}, nil
}

// mapTokenErr переводит ошибки пакета tokens в сентинелы сервиса.
func mapTokenErr(err error) error {
	switch {
	case errors.Is(err, tokens.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, tokens.ErrNotYetValid), errors.Is(err, tokens.ErrMalformed):
		return ErrInvalidToken
	default:
		return err
	}
}

// hashPassword хэширует пароль с помощью bcrypt.
func hashPassword(password string) (string, error) {
	const op = "service.auth.hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validateEmail проверяет базовый формат email и обрезает пробелы снаружи.
func validateEmail(raw string) (string, error) {
	const op = "service.auth.validateEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	return strings.ToLower(email), nil
}

// validatePassword проверяет минимальные требования к паролю.
// Политика по умолчанию: длина >= 8, хотя бы одна строчная, заглавная, цифра и спецсимвол.
func validatePassword(pw string) error {
	const op = "service.auth.validatePassword"

	if len(pw) == 0 {
		return fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	if len([]rune(pw)) < 8 {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if !(hasLower && hasUpper && hasDigit && hasSpecial) {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	return nil
}
