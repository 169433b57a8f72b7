// forms.go — формы входа, регистрации и редактирования:
// локальная валидация (go-playground/validator) и сборка payload для backend.
package model

import (
	"errors"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrValidation — форма не прошла локальную валидацию, запрос не отправляется.
var ErrValidation = errors.New("ошибка валидации формы")

// Ключи i18n для сообщений валидации.
const (
	ValidationRequired = "validation.required"
	ValidationDate     = "validation.date"
	ValidationOrders   = "validation.orders"
	ValidationInvalid  = "validation.invalid"
)

// ValidationError — ошибки валидации по полям (имя поля формы → ключ i18n).
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return ErrValidation.Error() + ": " + strings.Join(names, ", ")
}

// Unwrap позволяет проверять ошибку через errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Message возвращает ключ сообщения для поля или пустую строку.
func (e *ValidationError) Message(field string) string {
	if e == nil {
		return ""
	}
	return e.Fields[field]
}

// Credentials — форма входа.
type Credentials struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"` //nolint:gosec // G117: форма входа
}

// Validate проверяет обязательные поля формы входа.
func (c *Credentials) Validate() error {
	return validateForm(c)
}

// RegistrationForm — форма регистрации нового пользователя.
// Orders хранится строкой: нечисловое значение — ошибка валидации.
type RegistrationForm struct {
	Username    string `form:"username" validate:"required"`
	Password    string `form:"password" validate:"required"`
	Name        string `form:"name" validate:"required"`
	DateOfBirth string `form:"dateOfBirth" validate:"required,isodate"`
	ImageURL    string `form:"imageUrl"`
	Orders      string `form:"orders" validate:"required,orders"`
}

// Validate проверяет форму регистрации.
func (f *RegistrationForm) Validate() error {
	return validateForm(f)
}

// EditForm — форма редактирования. Пустой пароль — пароль не меняется.
type EditForm struct {
	Username    string `form:"username" validate:"required"`
	Password    string `form:"password"`
	Name        string `form:"name" validate:"required"`
	DateOfBirth string `form:"dateOfBirth" validate:"required,isodate"`
	ImageURL    string `form:"imageUrl"`
	Orders      string `form:"orders" validate:"required,orders"`
	IsBlocked   bool   `form:"isBlocked"`
}

// Validate проверяет форму редактирования.
func (f *EditForm) Validate() error {
	return validateForm(f)
}

// EditFormFrom заполняет форму редактирования значениями записи.
func EditFormFrom(u *User) *EditForm {
	return &EditForm{
		Username:    u.Username,
		Name:        u.Name,
		DateOfBirth: u.DateOfBirthInput(),
		ImageURL:    u.ImageURLValue(),
		Orders:      strconv.Itoa(u.Orders),
		IsBlocked:   u.IsBlocked,
	}
}

// BuildRegistration собирает payload регистрации.
// id, roleId, role, isBlocked фиксированы и не зависят от формы.
func BuildRegistration(form *RegistrationForm, now time.Time) (*User, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	dob, err := NormalizeDate(form.DateOfBirth)
	if err != nil {
		return nil, fieldError("dateOfBirth", ValidationDate)
	}
	orders, err := parseOrders(form.Orders)
	if err != nil {
		return nil, fieldError("orders", ValidationOrders)
	}

	imageURL := form.ImageURL
	return &User{
		ID:            0,
		Username:      form.Username,
		Password:      form.Password,
		Name:          form.Name,
		DateOfBirth:   dob,
		ImageURL:      &imageURL,
		RoleID:        RegistrationRoleID,
		Role:          &Role{ID: RegistrationRoleID, Name: RegistrationRoleName},
		IsBlocked:     false,
		LastLoginDate: FormatTimestamp(now),
		Orders:        orders,
	}, nil
}

// MergeEdit собирает полную запись для PUT: поля формы поверх исходной записи.
// id, roleId и lastLoginDate берутся из исходной записи без изменений.
func MergeEdit(original *User, form *EditForm) (*User, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	dob, err := NormalizeDate(form.DateOfBirth)
	if err != nil {
		return nil, fieldError("dateOfBirth", ValidationDate)
	}
	orders, err := parseOrders(form.Orders)
	if err != nil {
		return nil, fieldError("orders", ValidationOrders)
	}

	password := form.Password
	if password == "" {
		password = original.Password
	}

	var imageURL *string
	if form.ImageURL != "" {
		v := form.ImageURL
		imageURL = &v
	}

	role := Role{ID: DefaultRoleID, Name: DefaultRoleName}
	if original.Role != nil {
		if original.Role.ID != 0 {
			role.ID = original.Role.ID
		}
		if original.Role.Name != "" {
			role.Name = original.Role.Name
		}
	}

	return &User{
		ID:            original.ID,
		Username:      form.Username,
		Password:      password,
		Name:          form.Name,
		DateOfBirth:   dob,
		ImageURL:      imageURL,
		RoleID:        original.RoleID,
		Role:          &role,
		IsBlocked:     form.IsBlocked,
		LastLoginDate: original.LastLoginDate,
		Orders:        orders,
	}, nil
}

// --- Валидация ---

var validate = newValidator()

// newValidator создаёт validator с правилами форм: isodate и orders.
// Имена полей в ошибках берутся из тега form.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("form")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, "isodate", func(fl validator.FieldLevel) bool {
		_, err := NormalizeDate(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "orders", func(fl validator.FieldLevel) bool {
		_, err := parseOrders(fl.Field().String())
		return err == nil
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("регистрация правила " + tag + ": " + err.Error())
	}
}

// validateForm проверяет структуру формы и переводит ошибки в ValidationError.
func validateForm(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = messageKey(fe.Tag())
	}
	return &ValidationError{Fields: fields}
}

// messageKey сопоставляет тег правила ключу сообщения.
func messageKey(tag string) string {
	switch tag {
	case "required":
		return ValidationRequired
	case "isodate":
		return ValidationDate
	case "orders":
		return ValidationOrders
	default:
		return ValidationInvalid
	}
}

func fieldError(field, key string) error {
	return &ValidationError{Fields: map[string]string{field: key}}
}

// parseOrders разбирает orders: целое число в диапазоне [MinOrders, MaxOrders].
func parseOrders(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if n < MinOrders || n > MaxOrders {
		return 0, errors.New("orders вне диапазона")
	}
	return n, nil
}
