// logging.go — журнал HTTP-запросов консоли через slog.
package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// serviceEndpoints — служебные endpoints; логируются на уровне DEBUG.
var serviceEndpoints = []string{"/health/", "/metrics", "/static/"}

// statusRecorder запоминает статус и размер ответа.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.written += int64(n)
	return n, err
}

// Unwrap нужен http.ResponseController.
func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// RequestLogger пишет по записи на запрос.
//
// route — шаблон маршрута chi (/admin/users/{id}); для redirect (PRG, guard)
// добавляется location без query. Query запроса не логируется: в нём поисковая строка.
// Уровень: DEBUG для /health, /metrics, /static; иначе INFO, WARN (4xx), ERROR (5xx).
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With(slog.String("component", "http"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("route", routePattern(r)),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", rec.written),
				slog.String("remote_addr", r.RemoteAddr),
			}
			if location := redirectTarget(rec); location != "" {
				attrs = append(attrs, slog.String("location", location))
			}

			logger.LogAttrs(r.Context(), requestLevel(r.URL.Path, rec.statusCode), "HTTP запрос", attrs...)
		})
	}
}

func requestLevel(path string, status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case isServiceEndpoint(path):
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

func isServiceEndpoint(path string) bool {
	for _, prefix := range serviceEndpoints {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// redirectTarget возвращает путь из Location для 3xx.
func redirectTarget(rec *statusRecorder) string {
	if rec.statusCode < 300 || rec.statusCode >= 400 {
		return ""
	}
	u, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		return ""
	}
	return u.Path
}
