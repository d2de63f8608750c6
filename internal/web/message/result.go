package message

import "go-unimessage/internal/pkg/ginx"

const (
	systemErrorCode  = 506001
	invalidParamCode = 400001
	duplicateCode    = 400002
	notFoundCode     = 404001
	invalidStateCode = 409001
)

var (
	systemErrorResult = ginx.Result{
		Code: systemErrorCode,
		Msg:  "系统错误",
	}
)
