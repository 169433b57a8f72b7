package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Действия журнала.
const (
	ActionLogin    = "login"
	ActionLogout   = "logout"
	ActionFetch    = "fetch"
	ActionRegister = "register"
	ActionEdit     = "edit"
	ActionBlock    = "block"
)

// Исходы действий журнала.
const (
	OutcomeSuccess = "success"
	OutcomeWarning = "warning"
	OutcomeError   = "error"
)

// ActionLogEntry — запись журнала действий.
type ActionLogEntry struct {
	ID        int64
	SessionID string
	// Actor — имя администратора
	Actor  string
	Action string
	// TargetUserID — id пользователя backend (nil для login/logout/fetch)
	TargetUserID *int
	Outcome      string
	Detail       string
	CreatedAt    time.Time
}

// ActionLogRepository — интерфейс для таблицы action_log.
type ActionLogRepository interface {
	// Append добавляет запись в журнал.
	Append(ctx context.Context, entry *ActionLogEntry) error
	// ListRecent возвращает последние записи (новые первыми).
	ListRecent(ctx context.Context, limit int) ([]ActionLogEntry, error)
}

// actionLogRepo — реализация ActionLogRepository.
type actionLogRepo struct {
	db DBTX
}

// NewActionLogRepository создаёт репозиторий журнала действий.
func NewActionLogRepository(db DBTX) ActionLogRepository {
	return &actionLogRepo{db: db}
}

// Append добавляет запись; ID и CreatedAt заполняются из БД.
func (r *actionLogRepo) Append(ctx context.Context, entry *ActionLogEntry) error {
	query := `
		INSERT INTO action_log (session_id, actor, action, target_user_id, outcome, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		entry.SessionID, entry.Actor, entry.Action, entry.TargetUserID, entry.Outcome, entry.Detail,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка записи action_log[%s]: %w", entry.Action, err)
	}
	return nil
}

// ListRecent возвращает последние limit записей.
func (r *actionLogRepo) ListRecent(ctx context.Context, limit int) ([]ActionLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, session_id, actor, action, target_user_id, outcome, detail, created_at
		FROM action_log
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения action_log: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ActionLogEntry, error) {
		var e ActionLogEntry
		err := row.Scan(&e.ID, &e.SessionID, &e.Actor, &e.Action, &e.TargetUserID, &e.Outcome, &e.Detail, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования action_log: %w", err)
	}
	return entries, nil
}
