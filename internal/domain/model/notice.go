// notice.go — уведомления, показываемые администратору после действия.
package model

// NoticeLevel — уровень уведомления.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
	NoticeInfo    NoticeLevel = "info"
)

// Notice — результат действия для отображения.
// Title и Text — ключи i18n; Detail — текст от backend (без перевода).
type Notice struct {
	Level  NoticeLevel
	Title  string
	Text   string
	Detail string
}

// NewNotice создаёт уведомление без деталей.
func NewNotice(level NoticeLevel, title, text string) *Notice {
	return &Notice{Level: level, Title: title, Text: text}
}

// WithDetail возвращает копию уведомления с деталями.
func (n *Notice) WithDetail(detail string) *Notice {
	cp := *n
	cp.Detail = detail
	return &cp
}

// IsSuccess сообщает, что действие завершилось успешно.
func (n *Notice) IsSuccess() bool {
	return n != nil && n.Level == NoticeSuccess
}
