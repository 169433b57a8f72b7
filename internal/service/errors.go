// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — пользователь отсутствует в текущем каталоге сессии.
	ErrNotFound = errors.New("пользователь не найден в каталоге")
	// ErrNoSession — операция требует сессии с токеном.
	ErrNoSession = errors.New("сессия отсутствует или не содержит токена")
)
