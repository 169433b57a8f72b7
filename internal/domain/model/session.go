// session.go — явный объект сессии администратора.
package model

// Session — контекст сессии: создаётся при входе, передаётся явно
// тем компонентам, которым нужен токен, очищается явным вызовом Clear.
type Session struct {
	// ID — идентификатор сессии (ключ рабочего пространства каталога).
	ID string
	// Username — имя администратора (из claims токена или формы входа).
	Username string
	// ExpiresAt — exp токена (Unix), 0 если неизвестно. Только для отображения.
	ExpiresAt int64

	token string
}

// NewSession создаёт сессию с bearer-токеном.
func NewSession(id, username, token string) *Session {
	return &Session{ID: id, Username: username, token: token}
}

// Token возвращает bearer-токен (пустая строка после Clear).
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	return s.token
}

// HasToken сообщает, есть ли в сессии токен.
func (s *Session) HasToken() bool {
	return s.Token() != ""
}

// BearerHeader возвращает значение заголовка Authorization.
func (s *Session) BearerHeader() string {
	return "Bearer " + s.Token()
}

// Clear удаляет токен из сессии.
func (s *Session) Clear() {
	if s == nil {
		return
	}
	s.token = ""
}
