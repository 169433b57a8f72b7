// Пакет backend — HTTP-клиент к REST API пользователей.
// Операции: Login, Logout, ListUsers, RegisterUser, UpdateUser, BlockUser.
// Успех каждой операции определяется точно по коду ответа; повторов нет.
package backend

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/user-admin/internal/domain/model"
)

// Имена операций (метки метрик и префиксы ошибок).
const (
	OpLogin    = "login"
	OpLogout   = "logout"
	OpList     = "list_users"
	OpRegister = "register_user"
	OpUpdate   = "update_user"
	OpBlock    = "block_user"
)

// maxResponseBody — ограничение размера читаемого тела ответа.
const maxResponseBody = 10 << 20

// Метрики обращений к backend.
var (
	backendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ua_backend_requests_total",
			Help: "Общее количество запросов User Admin к backend пользователей",
		},
		[]string{"operation", "status"},
	)

	backendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ua_backend_request_duration_seconds",
			Help:    "Длительность запросов к backend пользователей в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Client — HTTP-клиент к backend пользователей.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	contract   *Contract // nil — проверка контракта отключена
	logger     *slog.Logger
}

// New создаёт клиент backend.
// baseURL — нормализованный базовый URL (с завершающим "/").
// caCertPath — путь к CA-сертификату (пустая строка — системный пул).
// timeout — таймаут одного запроса.
// validateResponses — проверять успешные ответы по OpenAPI-контракту.
func New(baseURL, caCertPath string, timeout time.Duration, validateResponses bool, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("разбор базового URL backend: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
	}
	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата backend: %w", err)
		}
		transport.TLSClientConfig = tlsConfig
		logger.Info("CA-сертификат backend добавлен в пул доверия",
			slog.String("ca_cert", caCertPath),
		)
	}

	c := &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		logger: logger.With(slog.String("component", "backend_client")),
	}

	if validateResponses {
		contract, err := LoadContract(base.Path)
		if err != nil {
			return nil, err
		}
		c.contract = contract
	}

	return c, nil
}

// BaseURL возвращает базовый URL backend.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// --- Auth API ---

// loginResponse — тело успешного ответа Auth/login.
type loginResponse struct {
	Token string `json:"token"`
}

// Login обменивает учётные данные на bearer-токен.
// Успех — любой 2xx с непустым token.
func (c *Client) Login(ctx context.Context, creds *model.Credentials) (string, error) {
	resp, err := c.do(ctx, OpLogin, http.MethodPost, "Auth/login", nil, creds)
	if err != nil {
		return "", err
	}
	if err := resp.expectSuccess(); err != nil {
		return "", err
	}

	var body loginResponse
	if err := resp.decode(&body); err != nil {
		return "", err
	}
	if body.Token == "" {
		return "", fmt.Errorf("%s: %w: пустой token", OpLogin, ErrMalformedResponse)
	}

	return body.Token, nil
}

// Logout сообщает backend о выходе. Любой HTTP-ответ принимается;
// ошибкой считается только сбой транспорта.
func (c *Client) Logout(ctx context.Context, session *model.Session) error {
	resp, err := c.do(ctx, OpLogout, http.MethodPost, "Auth/logout", session, struct{}{})
	if err != nil {
		return err
	}

	if !resp.isSuccess() {
		c.logger.Debug("Backend ответил на logout неуспешным статусом",
			slog.Int("status", resp.status),
		)
	}
	return nil
}

// --- User API ---

// ListUsers возвращает полный список пользователей.
// Успех — любой 2xx; тело должно быть массивом корректных записей,
// иначе весь список отвергается.
func (c *Client) ListUsers(ctx context.Context, session *model.Session) ([]model.User, error) {
	resp, err := c.do(ctx, OpList, http.MethodGet, "User/users", session, nil)
	if err != nil {
		return nil, err
	}
	if err := resp.expectSuccess(); err != nil {
		return nil, err
	}

	var users []model.User
	if err := resp.decode(&users); err != nil {
		return nil, err
	}
	if users == nil {
		return nil, fmt.Errorf("%s: %w: ожидался массив", OpList, ErrMalformedResponse)
	}
	for i := range users {
		if err := users[i].CheckWellFormed(); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", OpList, ErrMalformedResponse, err)
		}
	}

	return users, nil
}

// RegisterUser создаёт пользователя. Успех — ровно 200.
func (c *Client) RegisterUser(ctx context.Context, session *model.Session, user *model.User) error {
	resp, err := c.do(ctx, OpRegister, http.MethodPost, "User/register", session, user)
	if err != nil {
		return err
	}
	return resp.expectStatus(http.StatusOK)
}

// UpdateUser заменяет запись пользователя целиком. Успех — ровно 204.
func (c *Client) UpdateUser(ctx context.Context, session *model.Session, user *model.User) error {
	path, err := userPath("User/users/", user.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", OpUpdate, err)
	}

	resp, err := c.do(ctx, OpUpdate, http.MethodPut, path, session, user)
	if err != nil {
		return err
	}
	return resp.expectStatus(http.StatusNoContent)
}

// BlockUser блокирует пользователя. Успех — любой 2xx.
func (c *Client) BlockUser(ctx context.Context, session *model.Session, id int) error {
	path, err := userPath("User/users/block/", id)
	if err != nil {
		return fmt.Errorf("%s: %w", OpBlock, err)
	}

	resp, err := c.do(ctx, OpBlock, http.MethodPut, path, session, struct{}{})
	if err != nil {
		return err
	}
	return resp.expectSuccess()
}

// userPath формирует путь с id пользователя (simple-стиль параметра пути).
func userPath(prefix string, id int) (string, error) {
	param, err := runtime.StyleParamWithLocation("simple", false, "id", runtime.ParamLocationPath, id)
	if err != nil {
		return "", fmt.Errorf("параметр id: %w", err)
	}
	return prefix + param, nil
}

// --- Readiness checker ---

// CheckReady проверяет доступность backend (любой HTTP-ответ на базовый URL).
// Реализует handlers.ReadinessChecker.
func (c *Client) CheckReady() (string, string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.String(), http.NoBody)
	if err != nil {
		return "fail", fmt.Sprintf("некорректный URL backend: %v", err)
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // G107: URL из конфигурации
	if err != nil {
		return "fail", fmt.Sprintf("backend недоступен: %v", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))

	if resp.StatusCode >= http.StatusInternalServerError {
		return "degraded", fmt.Sprintf("backend отвечает статусом %d", resp.StatusCode)
	}
	return "ok", "backend доступен"
}

// --- HTTP helpers ---

// response — прочитанный ответ backend.
type response struct {
	op         string
	status     int
	statusText string
	body       []byte
}

// do выполняет запрос, читает тело целиком, записывает метрики и
// проверяет успешный ответ по контракту.
func (c *Client) do(ctx context.Context, op, method, path string, session *model.Session, body any) (*response, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("%s: разбор пути %q: %w", op, path, err)
	}
	reqURL := c.baseURL.ResolveReference(ref)

	var bodyReader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: сериализация тела запроса: %w", op, err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%s: создание запроса: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session.HasToken() {
		req.Header.Set("Authorization", session.BearerHeader())
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(req) //nolint:gosec // G107: URL из конфигурации
	backendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		backendRequestsTotal.WithLabelValues(op, "error").Inc()
		return nil, fmt.Errorf("%s: запрос к backend: %w", op, err)
	}
	defer httpResp.Body.Close()

	backendRequestsTotal.WithLabelValues(op, strconv.Itoa(httpResp.StatusCode)).Inc()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%s: чтение ответа backend: %w", op, err)
	}

	resp := &response{
		op:         op,
		status:     httpResp.StatusCode,
		statusText: statusText(httpResp),
		body:       data,
	}

	c.logger.Debug("Ответ backend",
		slog.String("operation", op),
		slog.String("method", method),
		slog.String("path", reqURL.Path),
		slog.Int("status", resp.status),
		slog.Duration("duration", time.Since(start)),
	)

	if c.contract != nil && resp.isSuccess() {
		if err := c.contract.ValidateResponse(ctx, req, resp.status, httpResp.Header, data); err != nil {
			c.logger.Warn("Ответ backend не соответствует контракту",
				slog.String("operation", op),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return resp, nil
}

func (r *response) isSuccess() bool {
	return r.status >= 200 && r.status < 300
}

// expectSuccess принимает любой 2xx.
func (r *response) expectSuccess() error {
	if !r.isSuccess() {
		return &APIError{Operation: r.op, Status: r.status, Message: extractMessage(r.body)}
	}
	return nil
}

// expectStatus принимает только указанный код; прочие 2xx — UnexpectedStatusError.
func (r *response) expectStatus(expected int) error {
	if err := r.expectSuccess(); err != nil {
		return err
	}
	if r.status != expected {
		return &UnexpectedStatusError{
			Operation:  r.op,
			Status:     r.status,
			Expected:   expected,
			StatusText: r.statusText,
		}
	}
	return nil
}

// decode строго декодирует JSON-тело ответа.
func (r *response) decode(target any) error {
	if len(bytes.TrimSpace(r.body)) == 0 {
		return fmt.Errorf("%s: %w: пустое тело", r.op, ErrMalformedResponse)
	}
	if err := json.Unmarshal(r.body, target); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return fmt.Errorf("%s: %w: поле %s: %v", r.op, ErrMalformedResponse, typeErr.Field, err)
		}
		return fmt.Errorf("%s: %w: %v", r.op, ErrMalformedResponse, err)
	}
	return nil
}

// statusText возвращает текст статуса ответа без числового кода.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA-сертификатом.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("CA-сертификат %s не содержит PEM-блоков", caCertPath)
	}

	return &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}, nil
}
