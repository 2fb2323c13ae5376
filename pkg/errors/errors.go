// Package errors 将服务层错误渲染为统一的 JSON 失败信封
package errors

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/haierkeys/novel-sync-service/internal/middleware"
	"github.com/haierkeys/novel-sync-service/pkg/code"
)

// AppError 失败信封，HTTP 状态恒为 200，由 Code 区分错误类型
type AppError struct {
	Code      int       `json:"code"`
	Status    bool      `json:"status"`
	Message   string    `json:"message"`
	Details   []string  `json:"details,omitempty"`
	TraceID   string    `json:"traceId,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	cause error
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.cause }

// NewAppError 以 c 的错误码与消息构造，cause 保留在错误链中但不输出
func NewAppError(c *code.Code, cause error) *AppError {
	return fromCode(c, cause)
}

// WithDetails 覆盖详情
func (e *AppError) WithDetails(details ...string) *AppError {
	e.Details = details
	return e
}

func fromCode(c *code.Code, cause error) *AppError {
	return &AppError{
		Code:      c.Code(),
		Message:   c.Msg(),
		Details:   c.Details(),
		Timestamp: time.Now(),
		cause:     cause,
	}
}

// ErrorResponse 输出失败信封
// 错误链中依次查找 *AppError、*code.Code，都没有时按内部错误处理
func ErrorResponse(c *gin.Context, err error) {
	var out *AppError

	var codeErr *code.Code
	switch {
	case errors.As(err, &out):
	case errors.As(err, &codeErr):
		out = fromCode(codeErr, err)
	default:
		out = &AppError{
			Code:      http.StatusInternalServerError,
			Message:   "Internal Server Error",
			Timestamp: time.Now(),
			cause:     err,
		}
	}

	out.TraceID = middleware.GetTraceIDFromGin(c)
	c.JSON(http.StatusOK, out)
}

// IsAppError 错误链中是否包含 *AppError
func IsAppError(err error) bool {
	return GetAppError(err) != nil
}

// GetAppError 取出错误链中的 *AppError，没有时返回 nil
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
