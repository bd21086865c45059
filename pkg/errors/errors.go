package errors

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/haierkeys/block-note-service/internal/middleware"
	pkgapp "github.com/haierkeys/block-note-service/pkg/app"
	"github.com/haierkeys/block-note-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// AppError 统一应用错误结构体
// 包含错误码、HTTP 状态、消息、详情、追踪ID和时间戳
type AppError struct {
	// Code 错误码
	Code int `json:"code"`
	// HTTPStatus 响应状态码
	HTTPStatus int `json:"-"`
	// Message 错误消息
	Message string `json:"message"`
	// Details 错误详情（可选）
	Details []string `json:"details,omitempty"`
	// TraceID 请求追踪ID
	TraceID string `json:"traceId,omitempty"`
	// Cause 原始错误（不序列化到JSON）
	Cause error `json:"-"`
	// Timestamp 错误发生时间
	Timestamp time.Time `json:"timestamp"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	return e.Message
}

// Unwrap 实现 errors.Unwrap 接口，支持错误链路追踪
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError 从 Code 对象创建 AppError
func NewAppError(c *code.Code, cause error) *AppError {
	return &AppError{
		Code:       c.Code(),
		HTTPStatus: c.StatusCode(),
		Message:    c.Msg(),
		Details:    c.Details(),
		Cause:      cause,
		Timestamp:  time.Now(),
	}
}

// WithTraceID 设置 TraceID 并返回自身（链式调用）
func (e *AppError) WithTraceID(traceID string) *AppError {
	e.TraceID = traceID
	return e
}

// WithDetails 设置详情并返回自身（链式调用）
func (e *AppError) WithDetails(details ...string) *AppError {
	e.Details = details
	return e
}

// errorBody the Res envelope plus the trace id
type errorBody struct {
	pkgapp.Res
	TraceID string `json:"traceId,omitempty"`
}

// ErrorResponse 统一错误响应处理
// *code.Code and *AppError keep their status, anything else becomes 500 ErrorServerInternal
// 已知错误保留其状态码，未知错误返回 500
func ErrorResponse(c *gin.Context, err error) {
	traceID := middleware.GetTraceIDFromGin(c)
	lang := pkgapp.GetLang(c)

	var codeErr *code.Code
	var appErr *AppError

	switch {
	case errors.As(err, &codeErr):
		msg := codeErr.MsgIn(lang)
		write(c, codeErr.StatusCode(), errorBody{
			Res: pkgapp.Res{
				Code:    codeErr.Code(),
				Status:  false,
				Message: msg,
				Details: joinDetails(codeErr.Details()),
				Error:   msg,
			},
			TraceID: traceID,
		})
	case errors.As(err, &appErr):
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		write(c, status, errorBody{
			Res: pkgapp.Res{
				Code:    appErr.Code,
				Message: appErr.Message,
				Details: joinDetails(appErr.Details),
				Error:   appErr.Message,
			},
			TraceID: traceID,
		})
	default:
		ErrorResponseWithCode(c, code.ErrorServerInternal, err)
	}
}

// ErrorResponseWithCode 使用指定的 Code 对象返回错误响应
func ErrorResponseWithCode(c *gin.Context, codeErr *code.Code, cause error) {
	msg := codeErr.MsgIn(pkgapp.GetLang(c))
	write(c, codeErr.StatusCode(), errorBody{
		Res: pkgapp.Res{
			Code:    codeErr.Code(),
			Message: msg,
			Details: joinDetails(codeErr.Details()),
			Error:   msg,
		},
		TraceID: middleware.GetTraceIDFromGin(c),
	})
}

func write(c *gin.Context, status int, body errorBody) {
	c.Set(pkgapp.StatusCodeKey, status)
	c.JSON(status, body)
}

func joinDetails(details []string) interface{} {
	if len(details) == 0 {
		return nil
	}
	return strings.Join(details, ",")
}

// IsAppError 检查错误是否为 AppError 类型
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 从错误链中获取 AppError
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
