// Package api_router 提供 HTTP API 路由处理器
package api_router

import (
	"context"

	"github.com/medref/revision-service/internal/app"
	"github.com/medref/revision-service/internal/middleware"
	pkgapp "github.com/medref/revision-service/pkg/app"
	"github.com/medref/revision-service/pkg/code"
	"github.com/medref/revision-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 基础 Handler 结构体，封装 App Container
// 所有 API Handler 都应该嵌入此结构体以获得依赖注入能力
type Handler struct {
	App *app.App
}

// NewHandler 创建基础 Handler 实例
func NewHandler(a *app.App) *Handler {
	return &Handler{App: a}
}

// bind 绑定并校验参数，失败时直接输出 ErrorInvalidParams
func (h *Handler) bind(c *gin.Context, method string, params interface{}) bool {
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Warn(method+".BindAndValid err", zap.Error(errs))
		pkgapp.NewResponse(c).ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return false
	}
	return true
}

// pager 读取分页参数
func (h *Handler) pager(c *gin.Context) *pkgapp.Pager {
	cfg := pkgapp.PaginationConfig{
		DefaultPageSize: h.App.Config().App.DefaultPageSize,
		MaxPageSize:     h.App.Config().App.MaxPageSize,
	}
	return &pkgapp.Pager{Page: pkgapp.GetPage(c), PageSize: pkgapp.GetPageSizeWithConfig(c, cfg)}
}

// logError 记录错误日志，包含 Trace ID
func (h *Handler) logError(ctx context.Context, method string, err error) {
	h.App.Logger().Error(method,
		zap.Error(err),
		zap.String(logger.FieldTraceID, middleware.GetTraceID(ctx)),
	)
}
