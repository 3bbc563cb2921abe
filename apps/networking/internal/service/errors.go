package service

import (
	"errors"
	"fmt"

	"NetworkingServer/consts"
)

// BizError 业务错误，handler 层按 Code 映射 HTTP 状态与响应信封
type BizError struct {
	Code    int
	Message string
	cause   error
}

func (e *BizError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("biz error %d: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("biz error %d: %s", e.Code, e.Message)
}

func (e *BizError) Unwrap() error { return e.cause }

// NewError 使用错误码默认文案
func NewError(code int) *BizError {
	return &BizError{Code: code, Message: consts.GetMessage(code)}
}

// NewErrorf 自定义文案
func NewErrorf(code int, format string, args ...interface{}) *BizError {
	return &BizError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// internalError 包装基础设施错误，原始错误只进日志
func internalError(err error) *BizError {
	return &BizError{Code: consts.CodeInternalError, Message: consts.GetMessage(consts.CodeInternalError), cause: err}
}

// upstreamError 链上 RPC 失败
func upstreamError(err error) *BizError {
	return &BizError{Code: consts.CodeUpstreamFailure, Message: consts.GetMessage(consts.CodeUpstreamFailure), cause: err}
}

// AsBizError 提取业务错误，非业务错误统一视为内部错误
func AsBizError(err error) *BizError {
	if err == nil {
		return nil
	}
	var biz *BizError
	if errors.As(err, &biz) {
		return biz
	}
	return internalError(err)
}
