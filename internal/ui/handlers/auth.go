// auth.go — вход и выход администратора.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bigkaa/goartstore/user-admin/internal/directory"
	"github.com/bigkaa/goartstore/user-admin/internal/service"
	"github.com/bigkaa/goartstore/user-admin/internal/ui/auth"
	uimiddleware "github.com/bigkaa/goartstore/user-admin/internal/ui/middleware"
	"github.com/bigkaa/goartstore/user-admin/internal/ui/pages"
)

// AuthHandler — обработчики входа и выхода.
type AuthHandler struct {
	authSvc        *service.AuthService
	sessionManager *auth.SessionManager
	registry       *directory.Registry
	logger         *slog.Logger
}

// NewAuthHandler создаёт AuthHandler.
func NewAuthHandler(
	authSvc *service.AuthService,
	sessionManager *auth.SessionManager,
	registry *directory.Registry,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authSvc:        authSvc,
		sessionManager: sessionManager,
		registry:       registry,
		logger:         logger.With(slog.String("component", "ui_auth")),
	}
}

// HandleLoginPage — GET /admin/login.
// С действующей сессией сразу ведёт в каталог.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if session, err := h.sessionManager.GetSessionFromRequest(r); err == nil && session.HasToken() {
		http.Redirect(w, r, "/admin/", http.StatusFound)
		return
	}
	renderPage(w, r, h.logger, http.StatusOK, pages.Login(pages.LoginData{}))
}

// HandleLogin — POST /admin/login.
// Ошибки валидации — 422 с сообщениями у полей; отказ backend — 401 с уведомлением.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	creds := credentialsFromRequest(r)

	session, notice, err := h.authSvc.Login(r.Context(), creds)
	if err != nil {
		creds.Password = ""
		renderPage(w, r, h.logger, http.StatusUnprocessableEntity, pages.Login(pages.LoginData{
			Form:   creds,
			Errors: validationErrors(err),
		}))
		return
	}
	if session == nil {
		creds.Password = ""
		renderPage(w, r, h.logger, http.StatusUnauthorized, pages.Login(pages.LoginData{
			Layout: pages.Layout{Notice: notice},
			Form:   creds,
		}))
		return
	}

	if err := h.sessionManager.SetSessionCookie(w, session); err != nil {
		h.logger.Error("Ошибка установки session cookie",
			slog.String("error", err.Error()),
		)
		http.Error(w, "Ошибка создания сессии", http.StatusInternalServerError)
		return
	}

	h.registry.GetOrCreate(session.ID).SetNotice(notice)
	http.Redirect(w, r, "/admin/", http.StatusSeeOther)
}

// HandleLogout — POST /admin/logout.
// Локальная сессия очищается в любом случае, даже если backend недоступен.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	session := uimiddleware.SessionFromContext(r.Context())
	if session == nil {
		session, _ = h.sessionManager.GetSessionFromRequest(r)
	}

	if session != nil {
		h.authSvc.Logout(r.Context(), session)
		h.registry.Delete(session.ID)
		h.logger.Info("Администратор вышел",
			slog.String("username", session.Username),
			slog.String("session_id", session.ID),
		)
	}

	h.sessionManager.ClearSessionCookie(w)
	http.Redirect(w, r, uimiddleware.LoginPath, http.StatusSeeOther)
}
