// redact маскирует чувствительные значения перед записью в лог.
// Email остаётся частично читаемым для диагностики, токены и пароли
// в логи не попадают вовсе — только плейсхолдеры.
package redact

import "strings"

// Email оставляет первые два символа локальной части и домен:
// "user@example.com" -> "us***@example.com". Строка без единственного '@'
// маскируется целиком.
func Email(s string) string {
	at := strings.IndexByte(s, '@')
	if at < 0 || strings.IndexByte(s[at+1:], '@') >= 0 {
		return "***"
	}

	local, domain := s[:at], s[at+1:]
	if len(local) <= 2 {
		return "***@" + domain
	}

	return local[:2] + "***@" + domain
}

// Token — плейсхолдер вместо значения токена.
func Token() string { return "[REDACTED_TOKEN]" }

// Password — плейсхолдер вместо пароля.
func Password() string { return "[REDACTED_PASSWORD]" }
