// log прокидывает request-scoped slog.Logger через context.Context.
// Транспортный слой кладёт в контекст логгер, уже обогащённый request_id,
// а нижние слои достают его, ничего не зная про HTTP.
package log

import (
	"context"
	"log/slog"
)

// Ключ приватного типа: чужой пакет не может ни прочитать, ни затереть значение.
type loggerKey struct{}

// Into возвращает производный контекст с положенным в него логгером.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// From достаёт логгер из контекста. Если его там нет (фоновые задачи,
// тесты) — возвращает slog.Default(), чтобы вызывающему не нужен был
// nil-чек.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}

	return slog.Default()
}
