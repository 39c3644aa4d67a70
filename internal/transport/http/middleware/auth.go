package middleware

import (
	"context"
	"net/http"
	"strings"

	"auth-service/internal/service"
	apierrors "auth-service/internal/transport/http/errors"
)

type ctxKey string

// CtxEmail — ключ контекста с email аутентифицированного пользователя.
const CtxEmail ctxKey = "auth_email"

// EmailFromContext возвращает email, положенный мидлваром Authenticate.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(CtxEmail).(string)
	return email, ok && email != ""
}

// Authenticate извлекает Bearer-токен из Authorization, проверяет его через
// сервис и кладёт email владельца в контекст. Запрос без валидного
// access-токена дальше не проходит.
func Authenticate(svc *service.Service) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				apierrors.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			email, err := svc.ValidateAccess(r.Context(), token)
			if err != nil {
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), CtxEmail, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")

	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) || len(auth) <= len(prefix) {
		return ""
	}

	return strings.TrimSpace(auth[len(prefix):])
}
