// Пакет directory — состояние каталога пользователей одной сессии.
// directory.go — полный список, видимый список и фильтры.
package directory

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/bigkaa/goartstore/user-admin/internal/domain/model"
)

// RoleFilterAll — значение селектора роли «все роли».
const RoleFilterAll = "all"

// ErrInvalidRoleFilter — селектор роли не "all" и не целое число.
var ErrInvalidRoleFilter = errors.New("некорректный фильтр роли")

// Directory — состояние каталога.
// Фильтры взаимоисключающие: применение одного сбрасывает другой,
// видимый список всегда вычисляется из полного.
// Не потокобезопасен; синхронизацию обеспечивает Workspace.
type Directory struct {
	all     []model.User
	visible []model.User
	query   string
	role    string
	loaded  bool
}

// New создаёт пустой каталог.
func New() *Directory {
	return &Directory{role: RoleFilterAll}
}

// Replace заменяет список целиком (успешная загрузка).
// Фильтры сбрасываются, видимый список совпадает с полным.
func (d *Directory) Replace(users []model.User) {
	all := make([]model.User, len(users))
	copy(all, users)

	d.all = all
	d.visible = all
	d.query = ""
	d.role = RoleFilterAll
	d.loaded = true
}

// ApplyTextFilter оставляет пользователей, чей username содержит q
// без учёта регистра. Пустой запрос — все пользователи. Фильтр роли сбрасывается.
func (d *Directory) ApplyTextFilter(q string) {
	d.query = q
	d.role = RoleFilterAll

	if q == "" {
		d.visible = d.all
		return
	}

	needle := strings.ToLower(q)
	visible := make([]model.User, 0, len(d.all))
	for _, u := range d.all {
		if strings.Contains(strings.ToLower(u.Username), needle) {
			visible = append(visible, u)
		}
	}
	d.visible = visible
}

// ApplyRoleFilter оставляет пользователей с точным совпадением roleId.
// "all" — все пользователи. Текстовый фильтр сбрасывается.
// Нечисловой селектор — ошибка, состояние не меняется.
func (d *Directory) ApplyRoleFilter(selector string) error {
	selector = strings.TrimSpace(selector)
	if selector == "" || selector == RoleFilterAll {
		d.query = ""
		d.role = RoleFilterAll
		d.visible = d.all
		return nil
	}

	roleID, err := strconv.Atoi(selector)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidRoleFilter, selector)
	}

	visible := make([]model.User, 0, len(d.all))
	for _, u := range d.all {
		if u.RoleID == roleID {
			visible = append(visible, u)
		}
	}

	d.query = ""
	d.role = strconv.Itoa(roleID)
	d.visible = visible
	return nil
}

// All возвращает копию полного списка.
func (d *Directory) All() []model.User {
	return cloneUsers(d.all)
}

// Visible возвращает копию видимого списка.
func (d *Directory) Visible() []model.User {
	return cloneUsers(d.visible)
}

// Total возвращает размер полного списка.
func (d *Directory) Total() int {
	return len(d.all)
}

// Query возвращает активный текстовый фильтр.
func (d *Directory) Query() string {
	return d.query
}

// RoleFilter возвращает активный фильтр роли ("all" или id).
func (d *Directory) RoleFilter() string {
	return d.role
}

// Loaded сообщает, была ли хотя бы одна успешная загрузка.
func (d *Directory) Loaded() bool {
	return d.loaded
}

// RoleIDs возвращает отсортированные уникальные roleId полного списка
// (варианты селектора роли).
func (d *Directory) RoleIDs() []int {
	seen := make(map[int]struct{}, len(d.all))
	ids := make([]int, 0)
	for _, u := range d.all {
		if _, ok := seen[u.RoleID]; ok {
			continue
		}
		seen[u.RoleID] = struct{}{}
		ids = append(ids, u.RoleID)
	}
	slices.Sort(ids)
	return ids
}

// Find ищет пользователя по id в полном списке.
func (d *Directory) Find(id int) (model.User, bool) {
	for _, u := range d.all {
		if u.ID == id {
			return cloneUser(u), true
		}
	}
	return model.User{}, false
}

func cloneUsers(users []model.User) []model.User {
	out := make([]model.User, len(users))
	for i, u := range users {
		out[i] = cloneUser(u)
	}
	return out
}

// cloneUser копирует запись вместе с указателями imageUrl и role.
func cloneUser(u model.User) model.User {
	if u.ImageURL != nil {
		v := *u.ImageURL
		u.ImageURL = &v
	}
	if u.Role != nil {
		r := *u.Role
		u.Role = &r
	}
	return u
}
