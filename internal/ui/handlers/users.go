// users.go — каталог пользователей: активация, фильтры, карточка,
// регистрация, редактирование, блокировка.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/bigkaa/goartstore/user-admin/internal/directory"
	"github.com/bigkaa/goartstore/user-admin/internal/domain/model"
	"github.com/bigkaa/goartstore/user-admin/internal/service"
	uimiddleware "github.com/bigkaa/goartstore/user-admin/internal/ui/middleware"
	"github.com/bigkaa/goartstore/user-admin/internal/ui/pages"
)

// journalPageSize — количество последних действий на странице каталога.
const journalPageSize = 10

// UsersHandler — обработчики каталога пользователей.
type UsersHandler struct {
	directorySvc *service.DirectoryService
	journal      *service.Journal
	registry     *directory.Registry
	logger       *slog.Logger
}

// NewUsersHandler создаёт UsersHandler. journal может быть nil.
func NewUsersHandler(
	directorySvc *service.DirectoryService,
	journal *service.Journal,
	registry *directory.Registry,
	logger *slog.Logger,
) *UsersHandler {
	return &UsersHandler{
		directorySvc: directorySvc,
		journal:      journal,
		registry:     registry,
		logger:       logger.With(slog.String("component", "ui.users")),
	}
}

// workspace возвращает сессию и её рабочее пространство.
// Маршруты каталога проходят через UIAuth, поэтому сессия всегда есть.
func (h *UsersHandler) workspace(r *http.Request) (*model.Session, *directory.Workspace) {
	session := uimiddleware.SessionFromContext(r.Context())
	return session, h.registry.GetOrCreate(session.ID)
}

// loadedWorkspace возвращает рабочее пространство, загружая каталог,
// если оно вытеснено из LRU или создано заново (например, после рестарта).
func (h *UsersHandler) loadedWorkspace(r *http.Request) (*model.Session, *directory.Workspace) {
	session, ws := h.workspace(r)
	if !ws.Snapshot().Loaded {
		// Ошибка уже превращена в уведомление внутри FetchAll
		_ = h.directorySvc.FetchAll(r.Context(), session, ws)
	}
	return session, ws
}

// HandleActivate — GET /admin/: загрузка полного списка и показ каталога.
func (h *UsersHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	session, ws := h.workspace(r)
	// Ошибка уже превращена в уведомление внутри FetchAll
	_ = h.directorySvc.FetchAll(r.Context(), session, ws)
	h.renderUsers(w, r, session, ws)
}

// HandleUsers — GET /admin/users: текущее состояние без повторной загрузки.
// ?role= применяет фильтр роли, иначе ?q= применяет текстовый фильтр.
func (h *UsersHandler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	session, ws := h.loadedWorkspace(r)

	query := r.URL.Query()
	switch {
	case query.Has("role"):
		if err := ws.ApplyRoleFilter(query.Get("role")); err != nil {
			ws.SetNotice(model.NewNotice(model.NoticeWarning, service.TitleWarning, service.TextInvalidRoleFilter))
		}
	case query.Has("q"):
		ws.ApplyTextFilter(query.Get("q"))
	}

	h.renderUsers(w, r, session, ws)
}

func (h *UsersHandler) renderUsers(w http.ResponseWriter, r *http.Request, session *model.Session, ws *directory.Workspace) {
	renderPage(w, r, h.logger, http.StatusOK, pages.Users(pages.UsersData{
		Layout:         pages.Layout{Username: session.Username, Notice: ws.TakeNotice()},
		Directory:      ws.Snapshot(),
		JournalEnabled: h.journal.Enabled(),
		Journal:        h.journal.Recent(r.Context(), journalPageSize),
	}))
}

// findUser ищет пользователя {id}; при отсутствии — уведомление и redirect.
func (h *UsersHandler) findUser(w http.ResponseWriter, r *http.Request) (*model.Session, *directory.Workspace, model.User, bool) {
	session, ws := h.loadedWorkspace(r)

	id, ok := userIDParam(r)
	if ok {
		if user, found := ws.Find(id); found {
			return session, ws, user, true
		}
	}

	h.notFound(w, r, ws)
	return nil, nil, model.User{}, false
}

func (h *UsersHandler) notFound(w http.ResponseWriter, r *http.Request, ws *directory.Workspace) {
	ws.SetNotice(model.NewNotice(model.NoticeError, service.TitleError, service.TextUserNotFound))
	redirectToUsers(w, r)
}

// HandleDetails — GET /admin/users/{id}: карточка только для чтения.
func (h *UsersHandler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	session, _, user, ok := h.findUser(w, r)
	if !ok {
		return
	}
	renderPage(w, r, h.logger, http.StatusOK, pages.Details(pages.DetailsData{
		Layout: pages.Layout{Username: session.Username},
		User:   user,
	}))
}

// HandleEditPage — GET /admin/users/{id}/edit: форма, заполненная из записи.
func (h *UsersHandler) HandleEditPage(w http.ResponseWriter, r *http.Request) {
	session, _, user, ok := h.findUser(w, r)
	if !ok {
		return
	}
	renderPage(w, r, h.logger, http.StatusOK, pages.EditUser(pages.EditData{
		Layout: pages.Layout{Username: session.Username},
		User:   user,
	}))
}

// HandleEdit — POST /admin/users/{id}/edit.
// action=block ведёт к подтверждению блокировки без сохранения формы.
func (h *UsersHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	session, ws, user, ok := h.findUser(w, r)
	if !ok {
		return
	}

	if r.PostFormValue("action") == "block" {
		http.Redirect(w, r, blockPath(user.ID), http.StatusSeeOther)
		return
	}

	form := editFormFromRequest(r)
	_, err := h.directorySvc.Edit(r.Context(), session, ws, user.ID, form)
	switch {
	case errors.Is(err, service.ErrNotFound):
		h.notFound(w, r, ws)
	case err != nil:
		form.Password = ""
		renderPage(w, r, h.logger, http.StatusUnprocessableEntity, pages.EditUser(pages.EditData{
			Layout: pages.Layout{Username: session.Username},
			User:   user,
			Form:   form,
			Errors: validationErrors(err),
		}))
	default:
		redirectToUsers(w, r)
	}
}

// HandleBlockPage — GET /admin/users/{id}/block: подтверждение.
func (h *UsersHandler) HandleBlockPage(w http.ResponseWriter, r *http.Request) {
	session, _, user, ok := h.findUser(w, r)
	if !ok {
		return
	}
	renderPage(w, r, h.logger, http.StatusOK, pages.BlockConfirm(pages.BlockData{
		Layout: pages.Layout{Username: session.Username},
		User:   user,
	}))
}

// HandleBlock — POST /admin/users/{id}/block.
func (h *UsersHandler) HandleBlock(w http.ResponseWriter, r *http.Request) {
	session, ws, user, ok := h.findUser(w, r)
	if !ok {
		return
	}

	if _, err := h.directorySvc.Block(r.Context(), session, ws, user.ID); errors.Is(err, service.ErrNotFound) {
		h.notFound(w, r, ws)
		return
	}
	redirectToUsers(w, r)
}

// HandleRegisterPage — GET /admin/users/new.
func (h *UsersHandler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	session := uimiddleware.SessionFromContext(r.Context())
	renderPage(w, r, h.logger, http.StatusOK, pages.Register(pages.RegisterData{
		Layout: pages.Layout{Username: session.Username},
	}))
}

// HandleRegister — POST /admin/users/new.
func (h *UsersHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	session, ws := h.workspace(r)

	form := registrationFormFromRequest(r)
	if _, err := h.directorySvc.Register(r.Context(), session, ws, form); err != nil {
		form.Password = ""
		renderPage(w, r, h.logger, http.StatusUnprocessableEntity, pages.Register(pages.RegisterData{
			Layout: pages.Layout{Username: session.Username},
			Form:   form,
			Errors: validationErrors(err),
		}))
		return
	}
	redirectToUsers(w, r)
}

func blockPath(id int) string {
	return UsersPath + "/" + strconv.Itoa(id) + "/block"
}
