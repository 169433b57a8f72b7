// directory.go — загрузка каталога и мутации пользователей.
// Протокол двухфазный: сначала мутация, и только после её успеха повторная
// загрузка полного списка. Повторов нет; при сбое каталог не меняется.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bigkaa/goartstore/user-admin/internal/backend"
	"github.com/bigkaa/goartstore/user-admin/internal/directory"
	"github.com/bigkaa/goartstore/user-admin/internal/domain/model"
	"github.com/bigkaa/goartstore/user-admin/internal/repository"
)

// UserBackend — операции backend над пользователями.
type UserBackend interface {
	ListUsers(ctx context.Context, session *model.Session) ([]model.User, error)
	RegisterUser(ctx context.Context, session *model.Session, user *model.User) error
	UpdateUser(ctx context.Context, session *model.Session, user *model.User) error
	BlockUser(ctx context.Context, session *model.Session, id int) error
}

// DirectoryService — сервис каталога пользователей.
type DirectoryService struct {
	backend UserBackend
	journal *Journal
	now     func() time.Time
	logger  *slog.Logger
}

// NewDirectoryService создаёт сервис каталога. journal может быть nil.
func NewDirectoryService(backend UserBackend, journal *Journal, logger *slog.Logger) *DirectoryService {
	return &DirectoryService{
		backend: backend,
		journal: journal,
		now:     time.Now,
		logger:  logger.With(slog.String("component", "directory_service")),
	}
}

// FetchAll загружает полный список и заменяет состояние каталога.
// При сбое состояние не меняется, в рабочее пространство кладётся уведомление об ошибке.
func (s *DirectoryService) FetchAll(ctx context.Context, session *model.Session, ws *directory.Workspace) error {
	if err := s.fetch(ctx, session, ws); err != nil {
		notice := errorNotice(TextFetchFailed).WithDetail(backend.ServerMessage(err))
		ws.SetNotice(notice)
		s.journal.Record(ctx, session, repository.ActionFetch, nil, notice)
		return err
	}
	return nil
}

// Register регистрирует нового пользователя.
// Ошибка валидации возвращается без запроса к backend; прочие исходы —
// уведомление в рабочем пространстве (оно же возвращается).
func (s *DirectoryService) Register(
	ctx context.Context,
	session *model.Session,
	ws *directory.Workspace,
	form *model.RegistrationForm,
) (*model.Notice, error) {
	user, err := model.BuildRegistration(form, s.now())
	if err != nil {
		return nil, err
	}

	var notice *model.Notice
	if err := s.backend.RegisterUser(ctx, session, user); err != nil {
		notice = failureNotice(err, TextRegisterFailed)
		s.logger.Warn("Регистрация пользователя не выполнена",
			slog.String("username", user.Username),
			slog.String("error", err.Error()),
		)
	} else {
		notice = s.refresh(ctx, session, ws, successNotice(TitleSuccess, TextRegisterDone))
	}

	ws.SetNotice(notice)
	s.journal.Record(ctx, session, repository.ActionRegister, nil, notice)
	return notice, nil
}

// Edit сохраняет изменения пользователя id: поля формы поверх исходной записи.
func (s *DirectoryService) Edit(
	ctx context.Context,
	session *model.Session,
	ws *directory.Workspace,
	id int,
	form *model.EditForm,
) (*model.Notice, error) {
	original, ok := ws.Find(id)
	if !ok {
		return nil, ErrNotFound
	}

	user, err := model.MergeEdit(&original, form)
	if err != nil {
		return nil, err
	}

	var notice *model.Notice
	if err := s.backend.UpdateUser(ctx, session, user); err != nil {
		notice = failureNotice(err, TextEditFailed)
		s.logger.Warn("Изменение пользователя не выполнено",
			slog.Int("user_id", id),
			slog.String("error", err.Error()),
		)
	} else {
		notice = s.refresh(ctx, session, ws, successNotice(TitleSuccess, TextEditDone))
	}

	ws.SetNotice(notice)
	s.journal.Record(ctx, session, repository.ActionEdit, &id, notice)
	return notice, nil
}

// Block блокирует пользователя id. Успех — любой 2xx.
func (s *DirectoryService) Block(
	ctx context.Context,
	session *model.Session,
	ws *directory.Workspace,
	id int,
) (*model.Notice, error) {
	if _, ok := ws.Find(id); !ok {
		return nil, ErrNotFound
	}

	var notice *model.Notice
	if err := s.backend.BlockUser(ctx, session, id); err != nil {
		notice = errorNotice(TextBlockFailed)
		s.logger.Warn("Блокировка пользователя не выполнена",
			slog.Int("user_id", id),
			slog.String("error", err.Error()),
		)
	} else {
		notice = s.refresh(ctx, session, ws, successNotice(TitleBlocked, TextBlockDone))
	}

	ws.SetNotice(notice)
	s.journal.Record(ctx, session, repository.ActionBlock, &id, notice)
	return notice, nil
}

// fetch загружает список и заменяет состояние каталога.
func (s *DirectoryService) fetch(ctx context.Context, session *model.Session, ws *directory.Workspace) error {
	if !session.HasToken() {
		return ErrNoSession
	}

	users, err := s.backend.ListUsers(ctx, session)
	if err != nil {
		s.logger.Error("Загрузка каталога не выполнена",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
		return err
	}

	ws.Replace(users)
	s.logger.Debug("Каталог загружен",
		slog.String("session_id", session.ID),
		slog.Int("total", len(users)),
	)
	return nil
}

// refresh выполняет повторную загрузку после успешной мутации.
// Если загрузка не удалась, мутация остаётся успешной, но уведомление
// понижается до предупреждения об устаревшем списке.
func (s *DirectoryService) refresh(ctx context.Context, session *model.Session, ws *directory.Workspace, done *model.Notice) *model.Notice {
	if err := s.fetch(ctx, session, ws); err != nil {
		s.journal.Record(ctx, session, repository.ActionFetch, nil, errorNotice(TextFetchFailed))
		return model.NewNotice(model.NoticeWarning, done.Title, TextRefreshFailed)
	}
	return done
}

// failureNotice классифицирует ошибку мутации.
// 2xx с неожиданным кодом — предупреждение; прочее — ошибка с сообщением сервера.
func failureNotice(err error, failedText string) *model.Notice {
	var unexpected *backend.UnexpectedStatusError
	if errors.As(err, &unexpected) {
		return warningNotice(TextUnexpected).WithDetail(unexpected.StatusText)
	}
	return errorNotice(failedText).WithDetail(backend.ServerMessage(err))
}
