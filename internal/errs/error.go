package errs

import (
	"errors"
)

// 定义统一的错误类型
var (
	ErrInvalidParameter = errors.New("参数错误")
	ErrInvalidState     = errors.New("状态不合法")
	ErrDuplicateRequest = errors.New("重复请求")

	ErrAppNotFound       = errors.New("应用不存在")
	ErrAppDisabled       = errors.New("应用已禁用")
	ErrTemplateNotFound  = errors.New("模板不存在")
	ErrTemplateDisabled  = errors.New("模板已禁用")
	ErrChannelNotFound   = errors.New("渠道不存在")
	ErrChannelDisabled   = errors.New("渠道已禁用")
	ErrUnknownChannel    = errors.New("未知渠道类型")
	ErrRecipientNotFound = errors.New("接收者不存在")
	ErrNoValidRecipient  = errors.New("无可用接收者")

	ErrBatchNotFound     = errors.New("批次记录不存在")
	ErrBatchDuplicate    = errors.New("批次号冲突")
	ErrCreateBatchFailed = errors.New("创建批次失败")
	ErrDetailNotFound    = errors.New("发送详情不存在")

	// 发送侧错误，全部落到 Detail 的 errorMsg 上，不会向上冒泡中断批次
	ErrRateLimited      = errors.New("发送频率超限")
	ErrProviderAuth     = errors.New("渠道认证失败")
	ErrProviderRejected = errors.New("供应商拒绝发送")
	ErrSendTimeout      = errors.New("发送超时")
	ErrUnreachable      = errors.New("供应商不可达")
)
