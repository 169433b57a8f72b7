// Пакет middleware — HTTP middleware для UI.
// auth.go — route guard: пропускает только запросы с сессией, содержащей токен.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bigkaa/goartstore/user-admin/internal/domain/model"
	"github.com/bigkaa/goartstore/user-admin/internal/ui/auth"
)

// LoginPath — страница входа, куда guard отправляет запросы без сессии.
const LoginPath = "/admin/login"

type contextKey string

const (
	// ContextKeyUISession — сессия администратора в контексте запроса.
	ContextKeyUISession contextKey = "ui_session"
)

// UIAuth — guard маршрутов консоли.
type UIAuth struct {
	sessionManager *auth.SessionManager
	logger         *slog.Logger
}

// NewUIAuth создаёт guard.
func NewUIAuth(sessionManager *auth.SessionManager, logger *slog.Logger) *UIAuth {
	return &UIAuth{
		sessionManager: sessionManager,
		logger:         logger.With(slog.String("component", "ui_auth_middleware")),
	}
}

// Middleware возвращает HTTP middleware guard'а.
// Применяется ко всем маршрутам /admin/*, кроме входа и смены языка.
func (ua *UIAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := ua.sessionManager.GetSessionFromRequest(r)
			if err != nil {
				ua.logger.Debug("Ошибка чтения UI-сессии",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				// Повреждённый cookie — очищаем
				ua.sessionManager.ClearSessionCookie(w)
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}

			if !session.HasToken() {
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// WithSession помещает сессию в контекст.
func WithSession(ctx context.Context, session *model.Session) context.Context {
	return context.WithValue(ctx, ContextKeyUISession, session)
}

// SessionFromContext извлекает сессию из контекста.
// Возвращает nil, если запрос не прошёл через UIAuth.
func SessionFromContext(ctx context.Context) *model.Session {
	session, ok := ctx.Value(ContextKeyUISession).(*model.Session)
	if !ok {
		return nil
	}
	return session
}
