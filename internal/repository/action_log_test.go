package repository

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/goartstore/user-admin/internal/config"
	"github.com/bigkaa/goartstore/user-admin/internal/database"
)

// setupTestDB запускает PostgreSQL контейнер и применяет миграции.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("useradmin_test"),
		postgres.WithUsername("useradmin"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	t.Setenv("UA_BACKEND_URL", "http://localhost:5000/api/")
	t.Setenv("UA_DB_HOST", host)
	t.Setenv("UA_DB_PORT", port.Port())
	t.Setenv("UA_DB_NAME", "useradmin_test")
	t.Setenv("UA_DB_USER", "useradmin")
	t.Setenv("UA_DB_PASSWORD", "test-password")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Migrate() вернул ошибку: %v", err)
	}

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Connect() вернул ошибку: %v", err)
	}
	t.Cleanup(pool.Close)

	return pool
}

// TestActionLog_AppendAndListRecent проверяет запись и чтение журнала.
func TestActionLog_AppendAndListRecent(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewActionLogRepository(pool)
	ctx := context.Background()

	target := 5
	entries := []*ActionLogEntry{
		{SessionID: "s1", Actor: "admin", Action: ActionLogin, Outcome: OutcomeSuccess},
		{SessionID: "s1", Actor: "admin", Action: ActionBlock, TargetUserID: &target, Outcome: OutcomeSuccess},
		{SessionID: "s1", Actor: "admin", Action: ActionEdit, TargetUserID: &target, Outcome: OutcomeError, Detail: "username taken"},
	}
	for _, e := range entries {
		if err := repo.Append(ctx, e); err != nil {
			t.Fatalf("Append() вернул ошибку: %v", err)
		}
		if e.ID == 0 || e.CreatedAt.IsZero() {
			t.Errorf("Append() не заполнил ID/CreatedAt: %+v", e)
		}
	}

	got, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent() вернул ошибку: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, ожидается 2", len(got))
	}
	if got[0].Action != ActionEdit || got[0].Detail != "username taken" {
		t.Errorf("первая запись = %+v, ожидается последняя добавленная", got[0])
	}
	if got[0].TargetUserID == nil || *got[0].TargetUserID != 5 {
		t.Errorf("TargetUserID = %v, ожидается 5", got[0].TargetUserID)
	}
}

// TestActionLog_RejectsUnknownAction проверяет CHECK-ограничение action.
func TestActionLog_RejectsUnknownAction(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewActionLogRepository(pool)

	err := repo.Append(context.Background(), &ActionLogEntry{
		SessionID: "s1", Actor: "admin", Action: "delete", Outcome: OutcomeSuccess,
	})
	if err == nil {
		t.Error("ожидалась ошибка для недопустимого action")
	}
}
