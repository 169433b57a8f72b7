package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bigkaa/goartstore/user-admin/internal/domain/model"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// setupMockBackend создаёт mock-сервер backend, смонтированный под /api/.
func setupMockBackend(t *testing.T, validate bool, handler http.HandlerFunc) *Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", handler))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := New(server.URL+"/api/", "", 5*time.Second, validate, testLogger())
	if err != nil {
		t.Fatalf("New() вернул ошибку: %v", err)
	}
	return client
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func testSession() *model.Session {
	return model.NewSession("sid", "admin", "t1")
}

// TestClient_Login проверяет обмен учётных данных на токен.
func TestClient_Login(t *testing.T) {
	var gotBody map[string]string

	client := setupMockBackend(t, true, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/Auth/login" {
			t.Errorf("запрос %s %s, ожидался POST /Auth/login", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("login не должен отправлять Authorization")
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(w, http.StatusOK, map[string]string{"token": "t1"})
	})

	token, err := client.Login(context.Background(), &model.Credentials{Username: "a", Password: "b"})
	if err != nil {
		t.Fatalf("Login() вернул ошибку: %v", err)
	}
	if token != "t1" {
		t.Errorf("token = %q, ожидается t1", token)
	}
	if gotBody["username"] != "a" || gotBody["password"] != "b" {
		t.Errorf("тело запроса = %v", gotBody)
	}
}

func TestClient_LoginFailure(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "401",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "bad credentials"})
			},
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("ожидался *APIError, получено %v", err)
				}
				if apiErr.Status != http.StatusUnauthorized || apiErr.Message != "bad credentials" {
					t.Errorf("APIError = %+v", apiErr)
				}
			},
		},
		{
			name: "пустой токен",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]string{"token": ""})
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrMalformedResponse) {
					t.Errorf("ожидалась ErrMalformedResponse, получено %v", err)
				}
			},
		},
		{
			name: "не JSON",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, "<html>")
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrMalformedResponse) {
					t.Errorf("ожидалась ErrMalformedResponse, получено %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		for _, validate := range []bool{true, false} {
			t.Run(tt.name, func(t *testing.T) {
				client := setupMockBackend(t, validate, tt.handler)
				token, err := client.Login(context.Background(), &model.Credentials{Username: "a", Password: "b"})
				if err == nil {
					t.Fatalf("ожидалась ошибка, получен токен %q", token)
				}
				tt.check(t, err)
			})
		}
	}
}

// TestClient_Logout проверяет bearer-заголовок и приём любого ответа.
func TestClient_Logout(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusUnauthorized, http.StatusInternalServerError} {
		var gotAuth, gotBody string

		client := setupMockBackend(t, true, func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			data, _ := io.ReadAll(r.Body)
			gotBody = string(data)
			w.WriteHeader(status)
		})

		if err := client.Logout(context.Background(), testSession()); err != nil {
			t.Errorf("status=%d: Logout() вернул ошибку: %v", status, err)
		}
		if gotAuth != "Bearer t1" {
			t.Errorf("Authorization = %q, ожидается Bearer t1", gotAuth)
		}
		if strings.TrimSpace(gotBody) != "{}" {
			t.Errorf("тело = %q, ожидается {}", gotBody)
		}
	}
}

func TestClient_ListUsers(t *testing.T) {
	client := setupMockBackend(t, true, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/User/users" {
			t.Errorf("запрос %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"id":1,"username":"ann","password":"x","name":"Ann","dateOfBirth":"1990-01-01T00:00:00",
			 "imageUrl":null,"roleId":2,"role":{"id":2,"name":"Admin"},"isBlocked":false,
			 "lastLoginDate":"2024-01-01T00:00:00","orders":3},
			{"id":2,"username":"bob","roleId":1,"role":null,"isBlocked":true,"orders":1}
		]`)
	})

	users, err := client.ListUsers(context.Background(), testSession())
	if err != nil {
		t.Fatalf("ListUsers() вернул ошибку: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("len(users) = %d, ожидается 2", len(users))
	}
	if users[0].RoleName() != "Admin" || users[0].ImageURL != nil {
		t.Errorf("users[0] = %+v", users[0])
	}
	if !users[1].IsBlocked || users[1].Role != nil {
		t.Errorf("users[1] = %+v", users[1])
	}
}

// TestClient_ListUsersMalformed проверяет, что некорректная запись
// отвергает весь список.
func TestClient_ListUsersMalformed(t *testing.T) {
	bodies := map[string]string{
		"строковый id":     `[{"id":"one","username":"ann"}]`,
		"нулевой id":       `[{"id":1,"username":"ann"},{"id":0,"username":"bob"}]`,
		"пустой username":  `[{"id":1,"username":""}]`,
		"объект вместо []": `{"id":1,"username":"ann"}`,
		"null":             `null`,
	}

	for name, body := range bodies {
		for _, validate := range []bool{true, false} {
			t.Run(name, func(t *testing.T) {
				client := setupMockBackend(t, validate, func(w http.ResponseWriter, r *http.Request) {
					w.Header().Set("Content-Type", "application/json")
					_, _ = io.WriteString(w, body)
				})

				users, err := client.ListUsers(context.Background(), testSession())
				if !errors.Is(err, ErrMalformedResponse) {
					t.Errorf("validate=%v: ожидалась ErrMalformedResponse, получено %v (users=%v)", validate, err, users)
				}
			})
		}
	}
}

// TestClient_RegisterUser проверяет, что успех — ровно 200.
func TestClient_RegisterUser(t *testing.T) {
	tests := []struct {
		status     int
		wantErr    bool
		unexpected bool
	}{
		{http.StatusOK, false, false},
		{http.StatusCreated, true, true},
		{http.StatusNoContent, true, true},
		{http.StatusBadRequest, true, false},
	}

	for _, tt := range tests {
		var got model.User
		client := setupMockBackend(t, true, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/User/register" {
				t.Errorf("запрос %s %s", r.Method, r.URL.Path)
			}
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.WriteHeader(tt.status)
		})

		user := &model.User{Username: "new", RoleID: 2, Role: &model.Role{ID: 2, Name: "Admin"}}
		err := client.RegisterUser(context.Background(), testSession(), user)

		if (err != nil) != tt.wantErr {
			t.Errorf("status=%d: err = %v, wantErr %v", tt.status, err, tt.wantErr)
		}
		var unexpected *UnexpectedStatusError
		if errors.As(err, &unexpected) != tt.unexpected {
			t.Errorf("status=%d: UnexpectedStatusError = %v, ожидается %v", tt.status, err, tt.unexpected)
		}
		if got.Username != "new" {
			t.Errorf("payload не передан: %+v", got)
		}
	}
}

// TestClient_UpdateUser проверяет PUT User/users/{id} и успех ровно 204.
func TestClient_UpdateUser(t *testing.T) {
	tests := []struct {
		status     int
		wantErr    bool
		unexpected bool
	}{
		{http.StatusNoContent, false, false},
		{http.StatusOK, true, true},
		{http.StatusConflict, true, false},
	}

	for _, tt := range tests {
		var gotPath, gotMethod string
		client := setupMockBackend(t, true, func(w http.ResponseWriter, r *http.Request) {
			gotPath, gotMethod = r.URL.Path, r.Method
			if tt.status == http.StatusConflict {
				writeJSON(w, tt.status, map[string]string{"message": "username taken"})
				return
			}
			w.WriteHeader(tt.status)
		})

		err := client.UpdateUser(context.Background(), testSession(), &model.User{ID: 5, Username: "ann"})

		if gotMethod != http.MethodPut || gotPath != "/User/users/5" {
			t.Errorf("запрос %s %s, ожидался PUT /User/users/5", gotMethod, gotPath)
		}
		if (err != nil) != tt.wantErr {
			t.Errorf("status=%d: err = %v", tt.status, err)
		}
		var unexpected *UnexpectedStatusError
		if errors.As(err, &unexpected) != tt.unexpected {
			t.Errorf("status=%d: UnexpectedStatusError = %v", tt.status, err)
		}
		if tt.status == http.StatusConflict && ServerMessage(err) != "username taken" {
			t.Errorf("ServerMessage() = %q", ServerMessage(err))
		}
	}
}

// TestClient_BlockUser проверяет PUT User/users/block/{id} с телом {}.
func TestClient_BlockUser(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusNoContent} {
		var gotPath, gotBody string
		client := setupMockBackend(t, true, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			data, _ := io.ReadAll(r.Body)
			gotBody = string(data)
			w.WriteHeader(status)
		})

		if err := client.BlockUser(context.Background(), testSession(), 5); err != nil {
			t.Errorf("status=%d: BlockUser() вернул ошибку: %v", status, err)
		}
		if gotPath != "/User/users/block/5" {
			t.Errorf("path = %q", gotPath)
		}
		if strings.TrimSpace(gotBody) != "{}" {
			t.Errorf("тело = %q, ожидается {}", gotBody)
		}
	}

	client := setupMockBackend(t, true, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	var apiErr *APIError
	if err := client.BlockUser(context.Background(), testSession(), 5); !errors.As(err, &apiErr) {
		t.Errorf("ожидался *APIError, получено %v", err)
	}
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL + "/"
	server.Close()

	client, err := New(baseURL, "", time.Second, true, testLogger())
	if err != nil {
		t.Fatalf("New() вернул ошибку: %v", err)
	}

	_, err = client.ListUsers(context.Background(), testSession())
	if err == nil {
		t.Fatal("ожидалась ошибка транспорта")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) || errors.Is(err, ErrMalformedResponse) {
		t.Errorf("ошибка транспорта классифицирована неверно: %v", err)
	}

	if status, _ := client.CheckReady(); status != "fail" {
		t.Errorf("CheckReady() = %q, ожидается fail", status)
	}
}

func TestClient_CheckReady(t *testing.T) {
	client := setupMockBackend(t, false, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	if status, msg := client.CheckReady(); status != "ok" {
		t.Errorf("CheckReady() = %q (%s), ожидается ok", status, msg)
	}
}

func TestExtractMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"message":"m"}`, "m"},
		{`{"title":"t","detail":"d"}`, "d"},
		{`{"error":"e"}`, "e"},
		{`{"message":""}`, ""},
		{`{"message":42}`, ""},
		{`plain text`, ""},
		{``, ""},
	}

	for _, tt := range tests {
		if got := extractMessage([]byte(tt.body)); got != tt.want {
			t.Errorf("extractMessage(%q) = %q, ожидается %q", tt.body, got, tt.want)
		}
	}
}

// TestClient_BaseURL проверяет нормализацию базового URL (завершающий "/").
func TestClient_BaseURL(t *testing.T) {
	client, err := New("https://backend.test/api", "", time.Second, false, testLogger())
	if err != nil {
		t.Fatalf("New() вернул ошибку: %v", err)
	}
	if got := client.BaseURL(); got != "https://backend.test/api/" {
		t.Errorf("BaseURL() = %q, ожидается https://backend.test/api/", got)
	}
}
