package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"auth-service/internal/service"
	"auth-service/internal/transport/http/handlers"
	"auth-service/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Metrics(),            // счётчики/гистограммы по маршрутам
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := handlers.New(svc)

	// Публичные маршруты.
	root.Post("/auth/register", h.RegisterUser)
	root.Post("/auth/login", h.Login)
	root.Post("/auth/refresh", h.Renew)

	// Маршруты под Bearer-токеном.
	root.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(svc))

		r.Post("/auth/logout", h.Logout)
		r.Get("/auth/me", h.Me)
		r.Get("/users", h.ListUsers)
		r.Patch("/users/me", h.UpdateUser)
	})

	return root
}
