// Пакет pages — страницы консоли как templ-компоненты.
// Разметка хранится во встроенных html/template шаблонах; каждый компонент
// рендерит layout со своей страницей, переводя ключи на язык из контекста.
package pages

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/bigkaa/goartstore/user-admin/internal/directory"
	"github.com/bigkaa/goartstore/user-admin/internal/domain/model"
	"github.com/bigkaa/goartstore/user-admin/internal/repository"
	"github.com/bigkaa/goartstore/user-admin/internal/ui/i18n"
)

//go:embed templates/*.html
var templateFS embed.FS

// Имена страниц (файлы templates/<name>.html).
const (
	pageLogin    = "login"
	pageUsers    = "users"
	pageDetails  = "details"
	pageEdit     = "edit"
	pageBlock    = "block"
	pageRegister = "register"
)

// sets — наборы шаблонов: layout + partials + страница.
var sets = mustParse(pageLogin, pageUsers, pageDetails, pageEdit, pageBlock, pageRegister)

// Layout — общие данные всех страниц.
type Layout struct {
	// Username — имя администратора; пустое на странице входа.
	Username string
	// Notice — уведомление, показываемое один раз.
	Notice *model.Notice
}

// LoginData — данные страницы входа.
type LoginData struct {
	Layout
	Form   *model.Credentials
	Errors *model.ValidationError
}

// UsersData — данные каталога пользователей.
type UsersData struct {
	Layout
	Directory directory.Snapshot
	// JournalEnabled — показывать блок последних действий.
	JournalEnabled bool
	Journal        []repository.ActionLogEntry
}

// DetailsData — данные карточки пользователя.
type DetailsData struct {
	Layout
	User model.User
}

// EditData — данные формы редактирования.
type EditData struct {
	Layout
	User   model.User
	Form   *model.EditForm
	Errors *model.ValidationError
}

// BlockData — данные подтверждения блокировки.
type BlockData struct {
	Layout
	User model.User
}

// RegisterData — данные формы регистрации.
type RegisterData struct {
	Layout
	Form   *model.RegistrationForm
	Errors *model.ValidationError
}

// Login — страница входа.
func Login(data LoginData) templ.Component {
	if data.Form == nil {
		data.Form = &model.Credentials{}
	}
	return render(pageLogin, &data)
}

// Users — каталог пользователей с фильтрами.
func Users(data UsersData) templ.Component { return render(pageUsers, &data) }

// Details — карточка пользователя (только чтение).
func Details(data DetailsData) templ.Component { return render(pageDetails, &data) }

// EditUser — форма редактирования; без формы поля берутся из записи.
func EditUser(data EditData) templ.Component {
	if data.Form == nil {
		data.Form = model.EditFormFrom(&data.User)
	}
	return render(pageEdit, &data)
}

// BlockConfirm — подтверждение блокировки.
func BlockConfirm(data BlockData) templ.Component { return render(pageBlock, &data) }

// Register — форма регистрации.
func Register(data RegisterData) templ.Component {
	if data.Form == nil {
		data.Form = &model.RegistrationForm{}
	}
	return render(pageRegister, &data)
}

// render возвращает компонент, исполняющий layout страницы name.
// data передаётся указателем: шаблоны вызывают методы *model.User.
func render(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		tpl, err := sets[name].Clone()
		if err != nil {
			return fmt.Errorf("клонирование шаблона %s: %w", name, err)
		}
		tpl.Funcs(contextFuncs(ctx))
		if err := tpl.ExecuteTemplate(w, "layout", data); err != nil {
			return fmt.Errorf("рендеринг страницы %s: %w", name, err)
		}
		return nil
	})
}

// contextFuncs — функции шаблонов, зависящие от языка запроса.
func contextFuncs(ctx context.Context) template.FuncMap {
	return template.FuncMap{
		"t":    func(key string) string { return i18n.T(ctx, key) },
		"tf":   func(key string, args ...any) string { return i18n.Tf(ctx, key, args...) },
		"lang": func() string { return i18n.LangFromContext(ctx) },
	}
}

// baseFuncs — все функции шаблонов; t/tf/lang заменяются при рендеринге.
func baseFuncs() template.FuncMap {
	funcs := contextFuncs(context.Background())
	funcs["itoa"] = strconv.Itoa
	funcs["fieldErr"] = func(errs *model.ValidationError, field string) string {
		return errs.Message(field)
	}
	funcs["formatTime"] = func(t time.Time) string {
		return t.Local().Format("2006-01-02 15:04:05")
	}
	funcs["deref"] = func(p *int) string {
		if p == nil {
			return ""
		}
		return strconv.Itoa(*p)
	}
	return funcs
}

func mustParse(names ...string) map[string]*template.Template {
	result := make(map[string]*template.Template, len(names))
	for _, name := range names {
		tpl := template.Must(template.New(name).Funcs(baseFuncs()).ParseFS(templateFS,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name+".html",
		))
		result[name] = tpl
	}
	return result
}
