// workspace.go — рабочее пространство сессии: каталог + отложенное уведомление.
package directory

import (
	"sync"

	"github.com/bigkaa/goartstore/user-admin/internal/domain/model"
)

// Snapshot — согласованный срез состояния каталога для отображения.
type Snapshot struct {
	Users      []model.User
	Total      int
	Query      string
	RoleFilter string
	RoleIDs    []int
	Loaded     bool
}

// Workspace — состояние одной сессии администратора.
// Все обращения к каталогу проходят под мьютексом.
type Workspace struct {
	mu     sync.Mutex
	dir    *Directory
	notice *model.Notice
}

// NewWorkspace создаёт пустое рабочее пространство.
func NewWorkspace() *Workspace {
	return &Workspace{dir: New()}
}

// Replace заменяет список пользователей целиком.
func (w *Workspace) Replace(users []model.User) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dir.Replace(users)
}

// ApplyTextFilter применяет текстовый фильтр.
func (w *Workspace) ApplyTextFilter(q string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dir.ApplyTextFilter(q)
}

// ApplyRoleFilter применяет фильтр роли.
func (w *Workspace) ApplyRoleFilter(selector string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dir.ApplyRoleFilter(selector)
}

// Find ищет пользователя по id.
func (w *Workspace) Find(id int) (model.User, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dir.Find(id)
}

// Snapshot возвращает копию текущего состояния.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{
		Users:      w.dir.Visible(),
		Total:      w.dir.Total(),
		Query:      w.dir.Query(),
		RoleFilter: w.dir.RoleFilter(),
		RoleIDs:    w.dir.RoleIDs(),
		Loaded:     w.dir.Loaded(),
	}
}

// SetNotice сохраняет уведомление до следующего отображения страницы.
func (w *Workspace) SetNotice(n *model.Notice) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.notice = n
}

// TakeNotice возвращает и удаляет отложенное уведомление.
func (w *Workspace) TakeNotice() *model.Notice {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := w.notice
	w.notice = nil
	return n
}
