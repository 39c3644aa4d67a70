// sessions реализует реестр сессий в Redis.
//
// Ключ — "<prefix><email>:<device>", значение — действующий refresh-токен
// этой пары (пользователь, устройство), срок жизни ключа равен сроку жизни
// refresh-токена. На один ключ — не больше одного живого значения: повторный
// логин с того же устройства слепо перезаписывает предыдущую сессию
// (last-write-wins). Именно TTL реестра, а не подпись токена, решает,
// жива ли сессия: отозванный токен может быть криптографически валиден,
// но обслуживаться уже не должен.
//
// Перечисление ключей пользователя (ListDevices/RevokeAll) идёт курсорным
// SCAN со связанным размером страницы, чтобы не блокировать общий Redis на
// больших keyspace. RevokeAll — best-effort: сначала полностью собираются
// ключи, затем они удаляются пачками; ключи, записанные конкурентно со
// сканом, могут не попасть под удаление.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable — реестр недоступен (сеть/таймаут). Отличать от
// «сессии нет»: отсутствие ключа ошибкой не является.
var ErrUnavailable = errors.New("session registry unavailable")

// Registry — контракт реестра сессий для сервисного слоя.
type Registry interface {
	// Put сохраняет refresh-токен пары (email, device) с заданным TTL,
	// перезаписывая прежнее значение ключа.
	Put(ctx context.Context, email, device, refreshToken string, ttl time.Duration) error
	// Get возвращает токен пары (email, device) и признак его наличия.
	Get(ctx context.Context, email, device string) (string, bool, error)
	// ListDevices возвращает живые refresh-токены всех устройств пользователя.
	ListDevices(ctx context.Context, email string) ([]string, error)
	// RevokeAll удаляет все сессии пользователя; отсутствие сессий — не ошибка.
	RevokeAll(ctx context.Context, email string) error
	// Close закрывает клиент Redis.
	Close() error
}

// Store — реализация Registry поверх Redis.
type Store struct {
	rdb       *redis.Client
	prefix    string
	scanCount int64
}

const delBatchSize = 128

// New создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "sessions:"; scanCount <= 0 — 100.
func New(redisURL, prefix string, scanCount int64) (*Store, error) {
	const op = "sessions.New"

	if prefix == "" {
		prefix = "sessions:"
	}
	if scanCount <= 0 {
		scanCount = 100
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Store{rdb: rdb, prefix: prefix, scanCount: scanCount}, nil
}

func (s *Store) key(email, device string) string {
	return s.prefix + email + ":" + device
}

// Put — слепой SET с TTL, без compare-and-swap: конкурентные логины с одного
// устройства разрешаются порядком записи.
func (s *Store) Put(ctx context.Context, email, device, refreshToken string, ttl time.Duration) error {
	const op = "sessions.Put"

	if err := s.rdb.Set(ctx, s.key(email, device), refreshToken, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, email, device string) (string, bool, error) {
	const op = "sessions.Get"

	val, err := s.rdb.Get(ctx, s.key(email, device)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}

	return val, true, nil
}

func (s *Store) ListDevices(ctx context.Context, email string) ([]string, error) {
	const op = "sessions.ListDevices"

	keys, err := s.scanKeys(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}

	tokens := make([]string, 0, len(vals))
	for _, v := range vals {
		// Ключ мог истечь между сканом и чтением.
		if str, ok := v.(string); ok {
			tokens = append(tokens, str)
		}
	}

	return tokens, nil
}

func (s *Store) RevokeAll(ctx context.Context, email string) error {
	const op = "sessions.RevokeAll"

	keys, err := s.scanKeys(ctx, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for start := 0; start < len(keys); start += delBatchSize {
		end := start + delBatchSize
		if end > len(keys) {
			end = len(keys)
		}

		if err := s.rdb.Del(ctx, keys[start:end]...).Err(); err != nil {
			return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
		}
	}

	return nil
}

// scanKeys перечисляет ключи пользователя курсорным SCAN до исчерпания.
// Email экранируется: MATCH — glob-шаблон, а '*' и '?' — допустимые
// символы локальной части адреса; без экранирования скан одного
// пользователя зацепил бы ключи соседей.
func (s *Store) scanKeys(ctx context.Context, email string) ([]string, error) {
	match := s.prefix + globEscape(email) + ":*"

	var (
		keys   []string
		cursor uint64
	)
	for {
		page, next, err := s.rdb.Scan(ctx, cursor, match, s.scanCount).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		keys = append(keys, page...)

		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}

// globEscape экранирует метасимволы glob-шаблона Redis MATCH.
func globEscape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Close закрывает клиент Redis.
func (s *Store) Close() error { return s.rdb.Close() }

var _ Registry = (*Store)(nil)
