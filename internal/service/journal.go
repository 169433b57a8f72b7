// journal.go — запись исходов действий в журнал (PostgreSQL, опционально).
// Ошибки журнала не влияют на исход действия: только логируются.
package service

import (
	"context"
	"log/slog"

	"github.com/bigkaa/goartstore/user-admin/internal/domain/model"
	"github.com/bigkaa/goartstore/user-admin/internal/repository"
)

// Journal — журнал действий администраторов. nil-журнал ничего не записывает.
type Journal struct {
	repo   repository.ActionLogRepository
	logger *slog.Logger
}

// NewJournal создаёт журнал поверх репозитория.
func NewJournal(repo repository.ActionLogRepository, logger *slog.Logger) *Journal {
	return &Journal{
		repo:   repo,
		logger: logger.With(slog.String("component", "journal")),
	}
}

// Enabled сообщает, ведётся ли журнал.
func (j *Journal) Enabled() bool {
	return j != nil && j.repo != nil
}

// Record записывает исход действия.
func (j *Journal) Record(ctx context.Context, session *model.Session, action string, target *int, notice *model.Notice) {
	if !j.Enabled() {
		return
	}

	entry := &repository.ActionLogEntry{
		Action:       action,
		TargetUserID: target,
		Outcome:      outcomeOf(notice),
	}
	if session != nil {
		entry.SessionID = session.ID
		entry.Actor = session.Username
	}
	if notice != nil {
		entry.Detail = notice.Detail
	}

	if err := j.repo.Append(ctx, entry); err != nil {
		j.logger.Warn("Не удалось записать действие в журнал",
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}

// Recent возвращает последние записи журнала; nil, если журнал отключён.
func (j *Journal) Recent(ctx context.Context, limit int) []repository.ActionLogEntry {
	if !j.Enabled() {
		return nil
	}

	entries, err := j.repo.ListRecent(ctx, limit)
	if err != nil {
		j.logger.Warn("Не удалось прочитать журнал",
			slog.String("error", err.Error()),
		)
		return nil
	}
	return entries
}

func outcomeOf(n *model.Notice) string {
	if n == nil {
		return repository.OutcomeSuccess
	}
	switch n.Level {
	case model.NoticeSuccess, model.NoticeInfo:
		return repository.OutcomeSuccess
	case model.NoticeWarning:
		return repository.OutcomeWarning
	default:
		return repository.OutcomeError
	}
}
