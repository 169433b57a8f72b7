// notices.go — ключи i18n уведомлений об исходах действий.
package service

import "github.com/bigkaa/goartstore/user-admin/internal/domain/model"

const (
	TitleSuccess      = "notice.success"
	TitleWarning      = "notice.warning"
	TitleError        = "notice.error"
	TitleBlocked      = "notice.blocked"
	TitleLoginSuccess = "notice.login.title"

	TextLoginDone         = "notice.login.done"
	TextLoginFailed       = "notice.login.failed"
	TextFetchFailed       = "notice.fetch.failed"
	TextRefreshFailed     = "notice.refresh.failed"
	TextRegisterDone      = "notice.register.done"
	TextRegisterFailed    = "notice.register.failed"
	TextEditDone          = "notice.edit.done"
	TextEditFailed        = "notice.edit.failed"
	TextBlockDone         = "notice.block.done"
	TextBlockFailed       = "notice.block.failed"
	TextUnexpected        = "notice.unexpected_response"
	TextUserNotFound      = "notice.user.not_found"
	TextInvalidRoleFilter = "notice.filter.invalid_role"
)

func successNotice(title, text string) *model.Notice {
	return model.NewNotice(model.NoticeSuccess, title, text)
}

func warningNotice(text string) *model.Notice {
	return model.NewNotice(model.NoticeWarning, TitleWarning, text)
}

func errorNotice(text string) *model.Notice {
	return model.NewNotice(model.NoticeError, TitleError, text)
}
