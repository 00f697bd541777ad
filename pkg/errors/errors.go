package errors

import (
	"fmt"
	"runtime"
	"strings"
)

// 业务错误码，按模块分段：1xx 通用，2xx 告警，3xx 分发
const (
	CodeInvalidRequest   = 100
	CodeNotFound         = 101
	CodeStoreUnavailable = 102

	CodeAlertTerminal    = 200 // 已归档/已取消的告警不可再操作
	CodeNoRecipients     = 201 // 目标规则解析不到任何接收人
	CodeUnknownAction    = 202 // 升级规则动作未知
	CodeDuplicateAck     = 203
	CodeInvalidTargeting = 204
	CodeInvalidExpiry    = 205

	CodeSendFailed = 300
)

// Error represents a coded error with stack trace
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"` // 原始错误，不序列化
	Stack   string `json:"stack,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements the errors.Wrapper interface
func (e *Error) Unwrap() error { return e.Err }

// WithCode creates a new error with code
func WithCode(code int, message string) *Error {
	return &Error{Code: code, Message: message, Stack: captureStack()}
}

// WithCodef creates a new error with code and formatted message
func WithCodef(code int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Stack: captureStack()}
}

// Wrap wraps an error with message
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Message: message, Err: err, Stack: captureStack()}
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Message: fmt.Sprintf(format, args...), Err: err, Stack: captureStack()}
}

// New creates a new error
func New(message string) *Error {
	return &Error{Message: message, Stack: captureStack()}
}

// GetCode returns the error code, or 0 for foreign errors
func GetCode(err error) int {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return 0
}

// IsCode reports whether err carries the given business code
func IsCode(err error, code int) bool { return GetCode(err) == code }

// captureStack captures the current stack trace
func captureStack() string {
	buf := make([]byte, 1024)
	n := runtime.Stack(buf, false)
	stack := string(buf[:n])

	// 移除顶部几行（captureStack 与构造函数本身）
	lines := strings.Split(stack, "\n")
	if len(lines) > 6 {
		stack = strings.Join(lines[6:], "\n")
	}
	return strings.TrimSpace(stack)
}
