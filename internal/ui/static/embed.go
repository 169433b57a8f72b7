// Пакет static — встроенные статические ресурсы консоли (CSS).
package static

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed css/*.css
var content embed.FS

// FileSystem возвращает http.FileSystem для раздачи /static/*.
func FileSystem() http.FileSystem {
	return http.FS(content)
}

// FS возвращает fs.FS встроенных файлов.
func FS() fs.FS {
	return content
}
