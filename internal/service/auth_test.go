package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"auth-service/internal/config"
	"auth-service/internal/models"
	"auth-service/internal/sessions"
	"auth-service/internal/storage"
	"auth-service/internal/tokens"
	"auth-service/mocks"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		AccessSecret:    "unit-access-secret",
		RefreshSecret:   "unit-refresh-secret",
		AccessTokenTTL:  30 * time.Second,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "auth-service",
		Audience:        []string{"api-gateway"},
	}
}

func newSvc(t *testing.T) (*Service, *mocks.MockStorage, *mocks.MockRegistry, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)
	reg := mocks.NewMockRegistry(ctrl)
	svc := New(st, reg, tokens.New(testCfg()))
	return svc, st, reg, ctrl
}

func mustHashPW(t *testing.T, pw string) string {
	t.Helper()
	h, err := hashPassword(pw)
	require.NoError(t, err)
	return h
}

// testUser — заготовка пользователя, каким его вернуло бы хранилище.
func testUser(t *testing.T, pw string) *models.User {
	t.Helper()
	now := time.Now().UTC()
	return &models.User{
		ID:           42,
		Email:        "user@example.com",
		PasswordHash: mustHashPW(t, pw),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestRegisterUser_OK(t *testing.T) {
	t.Parallel()

	svc, st, reg, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	email := "User@Example.com"
	norm := "user@example.com"
	pw := "Abcdef1!"

	// Сначала UserByEmail → ErrNotFound, потом SaveUser, потом запись сессии.
	st.EXPECT().UserByEmail(gomock.Any(), norm).Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *models.User) error {
			require.Equal(t, norm, u.Email)
			require.NotEmpty(t, u.PasswordHash)
			u.ID = 42
			return nil
		})
	reg.EXPECT().Put(gomock.Any(), norm, "phone", gomock.Any(), 24*time.Hour).Return(nil)

	pair, err := svc.RegisterUser(ctx, "phone", email, pw)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	require.WithinDuration(t, time.Now().UTC().Add(30*time.Second), pair.AccessExpiresAt, 5*time.Second)
}

func TestRegisterUser_EmailTaken(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").
		Return(testUser(t, "Abcdef1!"), nil)

	_, err := svc.RegisterUser(context.Background(), "phone", "user@example.com", "Abcdef1!")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterUser_SaveConflict_MapsToEmailTaken(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(storage.ErrAlreadyExists)

	_, err := svc.RegisterUser(context.Background(), "phone", "user@example.com", "Abcdef1!")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterUser_Validation(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()

	_, err := svc.RegisterUser(ctx, "", "user@example.com", "Abcdef1!")
	require.ErrorIs(t, err, ErrInvalidDevice)

	_, err = svc.RegisterUser(ctx, "phone", "not-an-email", "Abcdef1!")
	require.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.RegisterUser(ctx, "phone", "user@example.com", "")
	require.ErrorIs(t, err, ErrEmptyPassword)

	_, err = svc.RegisterUser(ctx, "phone", "user@example.com", "alllowercase1")
	require.ErrorIs(t, err, ErrWeakPassword)
}

func TestLogin_OK(t *testing.T) {
	t.Parallel()

	svc, st, reg, ctrl := newSvc(t)
	defer ctrl.Finish()

	pw := "Abcdef1!"
	user := testUser(t, pw)

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	reg.EXPECT().Put(gomock.Any(), user.Email, "laptop", gomock.Any(), 24*time.Hour).
		DoAndReturn(func(_ context.Context, _, _, refresh string, _ time.Duration) error {
			// В реестр пишется именно выпущенный refresh-токен.
			uid, err := tokens.New(testCfg()).VerifyRefresh(refresh)
			require.NoError(t, err)
			require.Equal(t, user.ID, uid)
			return nil
		})

	pair, err := svc.Login(context.Background(), "laptop", "User@Example.Com ", pw)
	require.NoError(t, err)

	email, err := tokens.New(testCfg()).VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.Email, email)
}

func TestLogin_WrongPassword_And_UnknownEmail_SameError(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	user := testUser(t, "Abcdef1!")

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	_, err := svc.Login(ctx, "phone", user.Email, "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	st.EXPECT().UserByEmail(gomock.Any(), "ghost@example.com").Return(nil, storage.ErrNotFound)
	_, err = svc.Login(ctx, "phone", "ghost@example.com", "Abcdef1!")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_SessionWriteFailure_FailsLogin(t *testing.T) {
	t.Parallel()

	svc, st, reg, ctrl := newSvc(t)
	defer ctrl.Finish()

	pw := "Abcdef1!"
	user := testUser(t, pw)

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	reg.EXPECT().Put(gomock.Any(), user.Email, "phone", gomock.Any(), gomock.Any()).
		Return(sessions.ErrUnavailable)

	_, err := svc.Login(context.Background(), "phone", user.Email, pw)
	require.Error(t, err)
	require.ErrorIs(t, err, sessions.ErrUnavailable)
}

func TestLogin_Validation(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()

	_, err := svc.Login(ctx, "", "user@example.com", "Abcdef1!")
	require.ErrorIs(t, err, ErrInvalidDevice)

	_, err = svc.Login(ctx, "phone", "not-an-email", "Abcdef1!")
	require.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Login(ctx, "phone", "user@example.com", "")
	require.ErrorIs(t, err, ErrEmptyPassword)
}

func TestRenew_OK_NoRotation(t *testing.T) {
	t.Parallel()

	svc, st, reg, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := testUser(t, "Abcdef1!")
	refresh, err := tokens.New(testCfg()).IssueRefresh(user.ID, time.Now().UTC())
	require.NoError(t, err)

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)
	reg.EXPECT().ListDevices(gomock.Any(), user.Email).
		Return([]string{"other-token", refresh}, nil)

	access, err := svc.Renew(context.Background(), refresh)
	require.NoError(t, err)

	email, err := tokens.New(testCfg()).VerifyAccess(access)
	require.NoError(t, err)
	require.Equal(t, user.Email, email)

	// Новый refresh не выпускается: реестр больше не трогаем (нет EXPECT на Put).
}

func TestRenew_NotInRegistry_Rejected(t *testing.T) {
	t.Parallel()

	svc, st, reg, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := testUser(t, "Abcdef1!")
	refresh, err := tokens.New(testCfg()).IssueRefresh(user.ID, time.Now().UTC())
	require.NoError(t, err)

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)
	// Токен криптографически валиден, но в реестре его нет (logout/вытеснение).
	reg.EXPECT().ListDevices(gomock.Any(), user.Email).Return([]string{"different-token"}, nil)

	_, err = svc.Renew(context.Background(), refresh)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRenew_ExpiredRefresh(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	refresh, err := tokens.New(testCfg()).IssueRefresh(42, time.Now().UTC().Add(-48*time.Hour))
	require.NoError(t, err)

	_, err = svc.Renew(context.Background(), refresh)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestRenew_MalformedToken(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.Renew(context.Background(), "garbage.token.value")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRenew_AccessTokenRejectedAsRefresh(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	access, err := tokens.New(testCfg()).IssueAccess("user@example.com", time.Now().UTC())
	require.NoError(t, err)

	_, err = svc.Renew(context.Background(), access)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRenew_UserGone(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	refresh, err := tokens.New(testCfg()).IssueRefresh(42, time.Now().UTC())
	require.NoError(t, err)

	st.EXPECT().UserByID(gomock.Any(), int64(42)).Return(nil, storage.ErrNotFound)

	_, err = svc.Renew(context.Background(), refresh)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRenew_RegistryUnavailable(t *testing.T) {
	t.Parallel()

	svc, st, reg, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := testUser(t, "Abcdef1!")
	refresh, err := tokens.New(testCfg()).IssueRefresh(user.ID, time.Now().UTC())
	require.NoError(t, err)

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)
	reg.EXPECT().ListDevices(gomock.Any(), user.Email).Return(nil, sessions.ErrUnavailable)

	_, err = svc.Renew(context.Background(), refresh)
	require.ErrorIs(t, err, sessions.ErrUnavailable)
}

func TestLogout_OK_And_Idempotent(t *testing.T) {
	t.Parallel()

	svc, _, reg, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()

	// Нормализация email перед отзывом.
	reg.EXPECT().RevokeAll(gomock.Any(), "user@example.com").Return(nil).Times(2)

	require.NoError(t, svc.Logout(ctx, " User@Example.Com "))
	// Повторный выход того же пользователя — тоже успех.
	require.NoError(t, svc.Logout(ctx, "user@example.com"))
}

func TestLogout_RegistryUnavailable(t *testing.T) {
	t.Parallel()

	svc, _, reg, ctrl := newSvc(t)
	defer ctrl.Finish()

	reg.EXPECT().RevokeAll(gomock.Any(), "user@example.com").Return(sessions.ErrUnavailable)

	err := svc.Logout(context.Background(), "user@example.com")
	require.ErrorIs(t, err, sessions.ErrUnavailable)
}

func TestValidateAccess_OK(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	access, err := tokens.New(testCfg()).IssueAccess("user@example.com", time.Now().UTC())
	require.NoError(t, err)

	email, err := svc.ValidateAccess(context.Background(), access)
	require.NoError(t, err)
	require.Equal(t, "user@example.com", email)
}

func TestValidateAccess_Expired(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	access, err := tokens.New(testCfg()).IssueAccess("user@example.com", time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)

	_, err = svc.ValidateAccess(context.Background(), access)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateAccess_RefreshRejectedAsAccess(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	refresh, err := tokens.New(testCfg()).IssueRefresh(42, time.Now().UTC())
	require.NoError(t, err)

	_, err = svc.ValidateAccess(context.Background(), refresh)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestStorageError_PassesThroughUnmapped(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	dbErr := errors.New("connection refused")
	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").Return(nil, dbErr)

	_, err := svc.Login(context.Background(), "phone", "user@example.com", "Abcdef1!")
	require.ErrorIs(t, err, dbErr)
	require.NotErrorIs(t, err, ErrInvalidCredentials)
}
