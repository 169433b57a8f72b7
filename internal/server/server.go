// Пакет server — HTTP-сервер User Admin с graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/goartstore/user-admin/internal/api/handlers"
	"github.com/bigkaa/goartstore/user-admin/internal/api/middleware"
	"github.com/bigkaa/goartstore/user-admin/internal/config"
	uihandlers "github.com/bigkaa/goartstore/user-admin/internal/ui/handlers"
	"github.com/bigkaa/goartstore/user-admin/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/goartstore/user-admin/internal/ui/middleware"
	"github.com/bigkaa/goartstore/user-admin/internal/ui/static"
)

// UIComponents — обработчики и guard консоли.
type UIComponents struct {
	AuthHandler    *uihandlers.AuthHandler
	UsersHandler   *uihandlers.UsersHandler
	AuthMiddleware *uimiddleware.UIAuth
}

// Server — HTTP-сервер User Admin.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт сервер с маршрутами и middleware.
func New(cfg *config.Config, logger *slog.Logger, health *handlers.HealthHandler, ui *UIComponents) *Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           NewRouter(logger, health, ui),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает chi-маршрутизатор.
//
// Публичные: /health/*, /metrics, /static/*, /admin/login, /admin/logout, /admin/set-language.
// Остальные /admin/* проходят через UIAuth.
func NewRouter(logger *slog.Logger, health *handlers.HealthHandler, ui *UIComponents) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	router.Get("/health/live", health.HealthLive)
	router.Get("/health/ready", health.HealthReady)
	router.Get("/metrics", health.GetMetrics)

	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/", http.StatusFound)
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(i18n.Middleware())

		r.Get("/login", ui.AuthHandler.HandleLoginPage)
		r.Post("/login", ui.AuthHandler.HandleLogin)
		r.Post("/logout", ui.AuthHandler.HandleLogout)
		r.Post("/set-language", uihandlers.HandleSetLanguage)

		r.Group(func(r chi.Router) {
			r.Use(ui.AuthMiddleware.Middleware())

			r.Get("/", ui.UsersHandler.HandleActivate)
			r.Get("/users", ui.UsersHandler.HandleUsers)
			r.Get("/users/new", ui.UsersHandler.HandleRegisterPage)
			r.Post("/users/new", ui.UsersHandler.HandleRegister)
			r.Get("/users/{id}", ui.UsersHandler.HandleDetails)
			r.Get("/users/{id}/edit", ui.UsersHandler.HandleEditPage)
			r.Post("/users/{id}/edit", ui.UsersHandler.HandleEdit)
			r.Get("/users/{id}/block", ui.UsersHandler.HandleBlockPage)
			r.Post("/users/{id}/block", ui.UsersHandler.HandleBlock)
		})
	})

	return router
}

// Run запускает сервер и ждёт SIGINT/SIGTERM, затем выполняет graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
