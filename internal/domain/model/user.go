// Пакет model — доменные модели User Admin.
// user.go — учётная запись пользователя backend и роль.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Параметры, фиксированные для новых пользователей при регистрации.
const (
	// RegistrationRoleID — roleId каждого нового пользователя.
	RegistrationRoleID = 2
	// RegistrationRoleName — имя роли каждого нового пользователя.
	RegistrationRoleName = "Admin"

	// DefaultRoleID — id роли, если у редактируемой записи роль отсутствует.
	DefaultRoleID = 0
	// DefaultRoleName — имя роли, если у редактируемой записи роль отсутствует.
	DefaultRoleName = "Default Role"
)

// Границы счётчика orders (включительно).
const (
	MinOrders = 1
	MaxOrders = 10
)

// isoTimestampLayout — формат дат в payload (как Date.toISOString: миллисекунды, UTC).
const isoTimestampLayout = "2006-01-02T15:04:05.000Z"

// ErrMalformedUser — запись из ответа backend не проходит проверку формы.
var ErrMalformedUser = errors.New("некорректная запись пользователя")

// Role — денормализованная пара {id, name}.
type Role struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// User — учётная запись пользователя.
// Password только для записи: никогда не отображается в UI.
type User struct {
	ID            int     `json:"id"`
	Username      string  `json:"username"`
	Password      string  `json:"password"`
	Name          string  `json:"name"`
	DateOfBirth   string  `json:"dateOfBirth"`
	ImageURL      *string `json:"imageUrl"`
	RoleID        int     `json:"roleId"`
	Role          *Role   `json:"role,omitempty"`
	IsBlocked     bool    `json:"isBlocked"`
	LastLoginDate string  `json:"lastLoginDate"`
	Orders        int     `json:"orders"`
}

// CheckWellFormed проверяет запись, полученную от backend.
// У существующей записи должен быть назначенный id и непустой username.
func (u *User) CheckWellFormed() error {
	if u.ID <= 0 {
		return fmt.Errorf("%w: id=%d", ErrMalformedUser, u.ID)
	}
	if strings.TrimSpace(u.Username) == "" {
		return fmt.Errorf("%w: пустой username (id=%d)", ErrMalformedUser, u.ID)
	}
	return nil
}

// Status возвращает "blocked" или "active".
func (u *User) Status() string {
	if u.IsBlocked {
		return "blocked"
	}
	return "active"
}

// DateOfBirthInput возвращает дату рождения в формате поля ввода (YYYY-MM-DD).
func (u *User) DateOfBirthInput() string {
	date, _, _ := strings.Cut(u.DateOfBirth, "T")
	return date
}

// ImageURLValue возвращает URL изображения или пустую строку.
func (u *User) ImageURLValue() string {
	if u.ImageURL == nil {
		return ""
	}
	return *u.ImageURL
}

// RoleName возвращает имя роли или пустую строку.
func (u *User) RoleName() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.Name
}

// NormalizeDate приводит дату к полной ISO-метке времени (UTC, миллисекунды).
// Принимает дату поля ввода (YYYY-MM-DD) или RFC 3339.
func NormalizeDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return FormatTimestamp(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return FormatTimestamp(t), nil
	}
	return "", fmt.Errorf("некорректная дата %q", value)
}

// FormatTimestamp форматирует время в ISO-метку payload.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(isoTimestampLayout)
}
