// Пакет auth — хранение сессии администратора в зашифрованном cookie.
// Шифрование AES-256-GCM; токен backend не покидает сервер в открытом виде.
package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bigkaa/goartstore/user-admin/internal/domain/model"
)

// Имя cookie для зашифрованной сессии.
const SessionCookieName = "ua_session"

// CookiePath — путь, к которому привязан session cookie.
const CookiePath = "/admin"

// SessionData — содержимое session cookie.
type SessionData struct {
	// SessionID — ключ рабочего пространства каталога.
	SessionID string `json:"sid"`
	// Username — имя администратора.
	Username string `json:"username"`
	// Token — bearer-токен backend.
	Token string `json:"token"`
	// ExpiresAt — exp токена (Unix), 0 если неизвестно.
	ExpiresAt int64 `json:"exp,omitempty"`
}

// FromSession собирает данные cookie из сессии.
func FromSession(s *model.Session) *SessionData {
	return &SessionData{
		SessionID: s.ID,
		Username:  s.Username,
		Token:     s.Token(),
		ExpiresAt: s.ExpiresAt,
	}
}

// Session восстанавливает сессию из данных cookie.
func (d *SessionData) Session() *model.Session {
	s := model.NewSession(d.SessionID, d.Username, d.Token)
	s.ExpiresAt = d.ExpiresAt
	return s
}

// SessionManager шифрует и расшифровывает SessionData в cookie.
type SessionManager struct {
	gcm    cipher.AEAD
	secure bool
	maxAge time.Duration
}

// NewSessionManager создаёт менеджер сессий.
// key — base64 32-байтового ключа или произвольная строка (хешируется SHA-256);
// пустой key — случайный ключ, сессии не переживают рестарт.
func NewSessionManager(key string, secure bool, maxAge time.Duration) (*SessionManager, error) {
	var keyBytes []byte

	if key == "" {
		keyBytes = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, keyBytes); err != nil {
			return nil, fmt.Errorf("ошибка генерации ключа сессии: %w", err)
		}
	} else {
		var err error
		keyBytes, err = base64.StdEncoding.DecodeString(key)
		if err != nil || len(keyBytes) != 32 {
			keyBytes = sha256Key(key)
		}
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}

	return &SessionManager{
		gcm:    gcm,
		secure: secure,
		maxAge: maxAge,
	}, nil
}

// Encrypt шифрует SessionData и возвращает base64-строку.
func (sm *SessionManager) Encrypt(data *SessionData) (string, error) {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации сессии: %w", err)
	}

	nonce := make([]byte, sm.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("ошибка генерации nonce: %w", err)
	}

	// nonce в начале ciphertext
	ciphertext := sm.gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// Decrypt расшифровывает base64-строку в SessionData.
func (sm *SessionManager) Decrypt(encrypted string) (*SessionData, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования base64: %w", err)
	}

	nonceSize := sm.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("зашифрованные данные слишком короткие")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := sm.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка дешифрования сессии: %w", err)
	}

	var data SessionData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, fmt.Errorf("ошибка десериализации сессии: %w", err)
	}
	return &data, nil
}

// SetSessionCookie записывает зашифрованную сессию в ответ.
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, session *model.Session) error {
	encrypted, err := sm.Encrypt(FromSession(session))
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    encrypted,
		Path:     CookiePath,
		MaxAge:   int(sm.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// GetSessionFromRequest извлекает сессию из cookie запроса.
// Возвращает nil, nil если cookie отсутствует.
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) (*model.Session, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}

	data, err := sm.Decrypt(cookie.Value)
	if err != nil {
		return nil, err
	}
	return data.Session(), nil
}

// ClearSessionCookie удаляет session cookie (logout).
func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     CookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func sha256Key(key string) []byte {
	h := sha256.Sum256([]byte(key))
	return h[:]
}
