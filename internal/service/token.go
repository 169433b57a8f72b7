// token.go — разбор bearer-токена, полученного при входе.
// Без JWKS токен считается непрозрачным: claims читаются без проверки подписи,
// если токен вообще является JWT. С JWKS токен обязан пройти проверку подписи.
package service

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenRejected — токен не прошёл проверку подписи или claims.
var ErrTokenRejected = errors.New("токен отклонён")

// usernameClaims — claims с именем пользователя в порядке приоритета.
var usernameClaims = []string{
	"preferred_username",
	"unique_name",
	"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name",
	"name",
	"sub",
}

// TokenInfo — сведения, извлечённые из токена (только для отображения).
type TokenInfo struct {
	Username  string
	ExpiresAt int64
}

// TokenInspector извлекает сведения из токена входа.
type TokenInspector struct {
	jwks   keyfunc.Keyfunc // nil — проверка подписи отключена
	issuer string
	logger *slog.Logger
}

// NewTokenInspector создаёт инспектор без проверки подписи.
func NewTokenInspector(logger *slog.Logger) *TokenInspector {
	return &TokenInspector{
		logger: logger.With(slog.String("component", "token_inspector")),
	}
}

// NewVerifyingTokenInspector создаёт инспектор с проверкой подписи по JWKS.
// jwksURL — URL JWKS endpoint; caCertPath — опциональный CA для TLS;
// issuer — ожидаемый issuer (пустой — не проверяется).
func NewVerifyingTokenInspector(
	jwksURL string,
	caCertPath string,
	issuer string,
	refreshInterval time.Duration,
	logger *slog.Logger,
) (*TokenInspector, error) {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	if caCertPath != "" {
		var err error
		httpClient, err = httpClientWithCA(caCertPath, 10*time.Second)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата %s: %w", caCertPath, err)
		}
	}

	// NoErrorReturnFirstHTTPReq — стартуем даже если JWKS ещё недоступен.
	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		Client:                    httpClient,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           refreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("Ошибка обновления JWKS",
				slog.String("error", err.Error()),
				slog.String("url", jwksURL),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("создание JWKS storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("создание keyfunc: %w", err)
	}

	return NewTokenInspectorWithKeyfunc(k, issuer, logger), nil
}

// NewTokenInspectorWithKeyfunc создаёт инспектор с готовым keyfunc (используется в тестах).
func NewTokenInspectorWithKeyfunc(k keyfunc.Keyfunc, issuer string, logger *slog.Logger) *TokenInspector {
	return &TokenInspector{
		jwks:   k,
		issuer: issuer,
		logger: logger.With(slog.String("component", "token_inspector")),
	}
}

// Verifying сообщает, проверяется ли подпись токена.
func (i *TokenInspector) Verifying() bool {
	return i != nil && i.jwks != nil
}

// Inspect извлекает сведения из токена.
// Без проверки подписи непрозрачный (не JWT) токен допустим: возвращается пустой TokenInfo.
func (i *TokenInspector) Inspect(ctx context.Context, token string) (*TokenInfo, error) {
	claims := jwt.MapClaims{}

	if !i.Verifying() {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			if i != nil {
				i.logger.Debug("Токен не является JWT, claims не извлечены")
			}
			return &TokenInfo{}, nil
		}
		return infoFromClaims(claims), nil
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "ES256", "ES384", "PS256"}),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	if _, err := jwt.ParseWithClaims(token, claims, i.jwks.KeyfuncCtx(ctx), opts...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenRejected, err)
	}
	return infoFromClaims(claims), nil
}

func infoFromClaims(claims jwt.MapClaims) *TokenInfo {
	info := &TokenInfo{}
	for _, name := range usernameClaims {
		if v, ok := claims[name].(string); ok && v != "" {
			info.Username = v
			break
		}
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Unix()
	}
	return info
}

// httpClientWithCA создаёт HTTP-клиент с кастомным CA-сертификатом.
func httpClientWithCA(caCertPath string, timeout time.Duration) (*http.Client, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, err
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				RootCAs:    caCertPool,
				MinVersion: tls.VersionTLS12,
			},
		},
	}, nil
}
