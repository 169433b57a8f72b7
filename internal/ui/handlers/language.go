// language.go — переключение языка интерфейса.
package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bigkaa/goartstore/user-admin/internal/ui/i18n"
)

// HandleSetLanguage — POST /admin/set-language.
// Устанавливает cookie "lang" и возвращает на страницу из Referer (только внутри /admin).
func HandleSetLanguage(w http.ResponseWriter, r *http.Request) {
	lang := r.FormValue("lang")
	if !i18n.IsSupported(lang) {
		lang = i18n.DefaultLang
	}

	http.SetCookie(w, &http.Cookie{
		Name:     i18n.LangCookieName,
		Value:    lang,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(365 * 24 * time.Hour),
	})

	http.Redirect(w, r, returnPath(r.Header.Get("Referer")), http.StatusSeeOther)
}

// returnPath оставляет от Referer только путь внутри консоли.
func returnPath(referer string) string {
	u, err := url.Parse(referer)
	if err != nil || !strings.HasPrefix(u.Path, "/admin") {
		return "/admin/"
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}
