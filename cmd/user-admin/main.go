// Точка входа User Admin — веб-консоль администрирования пользователей.
// Загружает конфигурацию, при наличии PostgreSQL поднимает журнал действий,
// создаёт клиент backend, сервисный слой и UI-обработчики,
// запускает topologymetrics и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/goartstore/user-admin/internal/api/handlers"
	"github.com/bigkaa/goartstore/user-admin/internal/backend"
	"github.com/bigkaa/goartstore/user-admin/internal/config"
	"github.com/bigkaa/goartstore/user-admin/internal/database"
	"github.com/bigkaa/goartstore/user-admin/internal/directory"
	"github.com/bigkaa/goartstore/user-admin/internal/repository"
	"github.com/bigkaa/goartstore/user-admin/internal/server"
	"github.com/bigkaa/goartstore/user-admin/internal/service"
	"github.com/bigkaa/goartstore/user-admin/internal/ui/auth"
	uihandlers "github.com/bigkaa/goartstore/user-admin/internal/ui/handlers"
	"github.com/bigkaa/goartstore/user-admin/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/goartstore/user-admin/internal/ui/middleware"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("User Admin запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("backend_url", cfg.BackendURL),
	)

	if os.Getenv("UA_DEPHEALTH_GROUP") == "" {
		logger.Warn("UA_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Переводы интерфейса
	if _, err := i18n.Init(logger); err != nil {
		logger.Error("Ошибка загрузки переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	// 4. Журнал действий (опционально, если задан UA_DB_HOST)
	var (
		journal   *service.Journal
		pgChecker handlers.ReadinessChecker
		pgDB      *sql.DB
	)
	if cfg.JournalEnabled() {
		logger.Info("Применение миграций БД...")
		if err := database.Migrate(cfg, logger); err != nil {
			logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
			os.Exit(1)
		}

		pool, err := database.Connect(ctx, cfg, logger)
		if err != nil {
			logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()

		// Адаптер pgxpool → *sql.DB для topologymetrics
		pgDB = stdlib.OpenDBFromPool(pool)
		defer pgDB.Close()

		journal = service.NewJournal(repository.NewActionLogRepository(pool), logger)
		pgChecker = database.NewReadinessChecker(pool)
		logger.Info("Журнал действий включён")
	} else {
		logger.Info("Журнал действий отключён (UA_DB_HOST не задан)")
	}

	// 5. Клиент backend пользователей
	backendClient, err := backend.New(
		cfg.BackendURL,
		cfg.BackendCACertPath,
		cfg.BackendTimeout,
		cfg.BackendValidateResponses,
		logger,
	)
	if err != nil {
		logger.Error("Ошибка создания клиента backend", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. Проверка токена входа
	tokens := service.NewTokenInspector(logger)
	if cfg.JWTJWKSURL != "" {
		tokens, err = service.NewVerifyingTokenInspector(
			cfg.JWTJWKSURL,
			cfg.BackendCACertPath,
			cfg.JWTIssuer,
			cfg.JWKSRefreshInterval,
			logger,
		)
		if err != nil {
			logger.Error("Ошибка создания проверки JWT", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Проверка подписи токена включена",
			slog.String("jwks_url", cfg.JWTJWKSURL),
			slog.String("issuer", cfg.JWTIssuer),
		)
	}

	// 7. Services
	authSvc := service.NewAuthService(backendClient, tokens, journal, logger)
	directorySvc := service.NewDirectoryService(backendClient, journal, logger)

	// 8. Сессии и рабочие пространства каталога
	if cfg.SessionSecret == "" {
		logger.Warn("UA_SESSION_SECRET не задан, сессии не сохраняются между рестартами")
	}
	sessionMgr, err := auth.NewSessionManager(cfg.SessionSecret, cfg.SecureCookie, cfg.SessionTTL)
	if err != nil {
		logger.Error("Ошибка создания Session Manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	registry := directory.NewRegistry(cfg.WorkspaceCacheSize, cfg.SessionTTL)

	// 9. UI-обработчики
	uiComponents := &server.UIComponents{
		AuthHandler:    uihandlers.NewAuthHandler(authSvc, sessionMgr, registry, logger),
		UsersHandler:   uihandlers.NewUsersHandler(directorySvc, journal, registry, logger),
		AuthMiddleware: uimiddleware.NewUIAuth(sessionMgr, logger),
	}

	// 10. Health
	healthHandler := handlers.NewHealthHandler(backendClient, pgChecker)

	// 11. topologymetrics — мониторинг зависимостей
	dephealthSvc, dephealthErr := service.NewDephealthService(service.DephealthConfig{
		ServiceID:     "user-admin",
		Group:         cfg.DephealthGroup,
		BackendURL:    backendClient.BaseURL(),
		SkipTLSVerify: cfg.DephealthTLSSkipVerify,
		DB:            pgDB,
		DatabaseURL:   cfg.DatabaseURL(),
		CheckInterval: cfg.DephealthCheckInterval,
	}, logger)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics",
			slog.String("error", startErr.Error()),
		)
	} else {
		healthHandler.SetDependencies(dephealthSvc)
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			slog.Bool("tls_skip_verify", cfg.DephealthTLSSkipVerify),
		)
	}

	// 12. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, healthHandler, uiComponents)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("User Admin остановлен")
}
