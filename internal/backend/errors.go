// errors.go — ошибки клиента backend.
package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse — тело ответа не удалось декодировать или оно нарушает контракт.
var ErrMalformedResponse = errors.New("некорректный ответ backend")

// UnexpectedStatusError — успешный (2xx) ответ, но не тот код, который ожидает операция.
// Отображается как предупреждение.
type UnexpectedStatusError struct {
	Operation  string
	Status     int
	Expected   int
	StatusText string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%s: backend вернул статус %d %s (ожидался %d)",
		e.Operation, e.Status, e.StatusText, e.Expected)
}

// APIError — backend ответил кодом вне диапазона 2xx.
// Message — сообщение из JSON-тела ответа (может быть пустым).
type APIError struct {
	Operation string
	Status    int
	Message   string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: backend вернул статус %d: %s", e.Operation, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: backend вернул статус %d", e.Operation, e.Status)
}

// ServerMessage возвращает сообщение сервера из цепочки ошибок, если оно есть.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// errorMessageFields — поля JSON-тела ошибки в порядке приоритета.
var errorMessageFields = []string{"message", "detail", "title", "error"}

// extractMessage извлекает человекочитаемое сообщение из тела ошибки.
// Поддерживаются JSON-объекты с полями message, detail, title, error.
func extractMessage(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}

	for _, name := range errorMessageFields {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		var msg string
		if err := json.Unmarshal(raw, &msg); err == nil && strings.TrimSpace(msg) != "" {
			return strings.TrimSpace(msg)
		}
	}
	return ""
}
