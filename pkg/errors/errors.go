// Package errors 把业务错误码转换为统一的 JSON 错误响应
package errors

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medref/revision-service/internal/middleware"
	"github.com/medref/revision-service/pkg/code"
)

// AppError 错误响应体，HTTP 状态码始终为 200，业务码在 Code 中
type AppError struct {
	Code      int         `json:"code"`
	Status    bool        `json:"status"`
	Message   string      `json:"message"`
	Details   []string    `json:"details,omitempty"`
	Data      interface{} `json:"data,omitempty"` // 例如恢复失败时待补写的修订
	TraceID   string      `json:"traceId,omitempty"`
	Timestamp time.Time   `json:"timestamp"`

	cause error
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.cause }

// NewAppError 由业务码构造错误，cause 保留在错误链中但不输出
func NewAppError(c *code.Code, cause error) *AppError {
	e := &AppError{
		Code:      c.Code(),
		Message:   c.Msg(),
		Details:   c.Details(),
		cause:     cause,
		Timestamp: time.Now(),
	}
	if c.HaveData() {
		e.Data = c.Data()
	}
	return e
}

// Resolve 将任意错误转换为响应体
// 链中的 *AppError 原样复制，*code.Code 按其业务码转换，其余统一为 ErrorServerInternal
func Resolve(err error, traceID string) *AppError {
	var resp *AppError
	if existing := As(err); existing != nil {
		cp := *existing
		resp = &cp
	} else {
		c := code.ErrorServerInternal
		errors.As(err, &c)
		resp = NewAppError(c, err)
	}
	resp.TraceID = traceID
	return resp
}

// As 从错误链中取出 *AppError，不存在时返回 nil
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// ErrorResponse 写出错误响应，TraceID 取自当前请求
func ErrorResponse(c *gin.Context, err error) {
	c.JSON(http.StatusOK, Resolve(err, middleware.GetTraceIDFromGin(c)))
}
