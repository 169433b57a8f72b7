// Пакет handlers — HTTP-обработчики консоли.
// render.go — общие помощники рендеринга и разбора форм.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/goartstore/user-admin/internal/domain/model"
)

// UsersPath — страница каталога, куда ведут все redirect после действий.
const UsersPath = "/admin/users"

// renderPage отдаёт страницу с указанным статусом.
func renderPage(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, page templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := page.Render(r.Context(), w); err != nil {
		logger.Error("Ошибка рендеринга страницы",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
}

// redirectToUsers — Post/Redirect/Get после действия.
func redirectToUsers(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, UsersPath, http.StatusSeeOther)
}

// userIDParam разбирает {id} из пути.
func userIDParam(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// validationErrors приводит ошибку к *model.ValidationError (nil, если это не она).
func validationErrors(err error) *model.ValidationError {
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		return nil
	}
	return ve
}

func credentialsFromRequest(r *http.Request) *model.Credentials {
	return &model.Credentials{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
}

func registrationFormFromRequest(r *http.Request) *model.RegistrationForm {
	return &model.RegistrationForm{
		Username:    r.PostFormValue("username"),
		Password:    r.PostFormValue("password"),
		Name:        r.PostFormValue("name"),
		DateOfBirth: r.PostFormValue("dateOfBirth"),
		ImageURL:    r.PostFormValue("imageUrl"),
		Orders:      r.PostFormValue("orders"),
	}
}

func editFormFromRequest(r *http.Request) *model.EditForm {
	blocked := r.PostFormValue("isBlocked")
	return &model.EditForm{
		Username:    r.PostFormValue("username"),
		Password:    r.PostFormValue("password"),
		Name:        r.PostFormValue("name"),
		DateOfBirth: r.PostFormValue("dateOfBirth"),
		ImageURL:    r.PostFormValue("imageUrl"),
		Orders:      r.PostFormValue("orders"),
		IsBlocked:   blocked == "true" || blocked == "on",
	}
}
