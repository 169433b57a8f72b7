// Пакет service — бизнес-логика User Admin.
// auth.go — вход и выход администратора.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bigkaa/goartstore/user-admin/internal/domain/model"
	"github.com/bigkaa/goartstore/user-admin/internal/repository"
)

// AuthBackend — операции backend, нужные для входа и выхода.
type AuthBackend interface {
	Login(ctx context.Context, creds *model.Credentials) (string, error)
	Logout(ctx context.Context, session *model.Session) error
}

// AuthService — сервис входа и выхода.
type AuthService struct {
	backend AuthBackend
	tokens  *TokenInspector
	journal *Journal
	logger  *slog.Logger
}

// NewAuthService создаёт сервис входа. journal может быть nil.
func NewAuthService(backend AuthBackend, tokens *TokenInspector, journal *Journal, logger *slog.Logger) *AuthService {
	return &AuthService{
		backend: backend,
		tokens:  tokens,
		journal: journal,
		logger:  logger.With(slog.String("component", "auth_service")),
	}
}

// Login обменивает учётные данные на токен и создаёт сессию.
// Ошибка валидации формы возвращается как *model.ValidationError без запроса к backend.
// Любой другой сбой — уведомление об ошибке и nil-сессия.
func (s *AuthService) Login(ctx context.Context, creds *model.Credentials) (*model.Session, *model.Notice, error) {
	if err := creds.Validate(); err != nil {
		return nil, nil, err
	}

	token, err := s.backend.Login(ctx, creds)
	if err != nil {
		s.logger.Info("Вход отклонён",
			slog.String("username", creds.Username),
			slog.String("error", err.Error()),
		)
		return nil, errorNotice(TextLoginFailed), nil
	}

	info, err := s.tokens.Inspect(ctx, token)
	if err != nil {
		s.logger.Warn("Токен входа не прошёл проверку",
			slog.String("username", creds.Username),
			slog.String("error", err.Error()),
		)
		return nil, errorNotice(TextLoginFailed), nil
	}

	username := info.Username
	if username == "" {
		username = creds.Username
	}

	session := model.NewSession(uuid.NewString(), username, token)
	session.ExpiresAt = info.ExpiresAt

	notice := successNotice(TitleLoginSuccess, TextLoginDone)
	s.journal.Record(ctx, session, repository.ActionLogin, nil, notice)

	s.logger.Info("Администратор вошёл",
		slog.String("username", username),
		slog.String("session_id", session.ID),
	)
	return session, notice, nil
}

// Logout завершает сессию. Если токен есть — уведомляет backend;
// локальная сессия очищается в любом случае, сбой backend только логируется.
func (s *AuthService) Logout(ctx context.Context, session *model.Session) {
	if session == nil {
		return
	}

	notice := successNotice(TitleSuccess, "")
	if session.HasToken() {
		if err := s.backend.Logout(ctx, session); err != nil {
			notice = warningNotice("").WithDetail(err.Error())
			s.logger.Warn("Ошибка выхода на стороне backend, локальная сессия очищена",
				slog.String("session_id", session.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.journal.Record(ctx, session, repository.ActionLogout, nil, notice)
	session.Clear()
}

// IsValidation сообщает, что ошибка — ошибка валидации формы.
func IsValidation(err error) bool {
	return errors.Is(err, model.ErrValidation)
}
