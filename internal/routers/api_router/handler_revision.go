package api_router

import (
	"github.com/medref/revision-service/internal/app"
	"github.com/medref/revision-service/internal/dto"
	pkgapp "github.com/medref/revision-service/pkg/app"
	"github.com/medref/revision-service/pkg/code"
	apperrors "github.com/medref/revision-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

// RevisionHandler 文章修订 API 路由处理器
type RevisionHandler struct {
	*Handler
}

// NewRevisionHandler 创建 RevisionHandler 实例
func NewRevisionHandler(a *app.App) *RevisionHandler {
	return &RevisionHandler{Handler: NewHandler(a)}
}

// Create 为文章提交一条修订
// @Summary 提交修订
// @Tags 修订
// @Accept json
// @Produce json
// @Param params body dto.RevisionCreateRequest true "修订内容"
// @Success 200 {object} pkgapp.Res{data=dto.RevisionDTO} "成功"
// @Router /api/article/revision [post]
func (h *RevisionHandler) Create(c *gin.Context) {
	params := &dto.RevisionCreateRequest{}
	if !h.bind(c, "RevisionHandler.Create", params) {
		return
	}

	ctx := c.Request.Context()
	rev, err := h.App.RevisionService.Create(ctx, params)
	if err != nil {
		h.logError(ctx, "RevisionHandler.Create", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(rev))
}

// List 分页获取修订列表，按版本号降序
// @Summary 修订列表
// @Tags 修订
// @Produce json
// @Param id query int64 true "文章 ID"
// @Param page query int false "页码"
// @Param pageSize query int false "每页数量"
// @Success 200 {object} pkgapp.Res{data=dto.RevisionListDTO} "成功"
// @Router /api/article/revisions [get]
func (h *RevisionHandler) List(c *gin.Context) {
	params := &dto.RevisionListRequest{}
	if !h.bind(c, "RevisionHandler.List", params) {
		return
	}

	ctx := c.Request.Context()
	list, err := h.App.RevisionService.List(ctx, params.ArticleID, h.pager(c))
	if err != nil {
		h.logError(ctx, "RevisionHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(list))
}

// Get 获取指定版本的修订
// @Summary 获取修订
// @Tags 修订
// @Produce json
// @Param id query int64 true "文章 ID"
// @Param version query int64 true "版本号"
// @Success 200 {object} pkgapp.Res{data=dto.RevisionDTO} "成功"
// @Router /api/article/revision [get]
func (h *RevisionHandler) Get(c *gin.Context) {
	params := &dto.RevisionGetRequest{}
	if !h.bind(c, "RevisionHandler.Get", params) {
		return
	}

	ctx := c.Request.Context()
	rev, err := h.App.RevisionService.Get(ctx, params.ArticleID, params.Version)
	if err != nil {
		h.logError(ctx, "RevisionHandler.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(rev))
}

// Compare 对比同一文章的两个版本
// @Summary 对比修订
// @Tags 修订
// @Produce json
// @Param id query int64 true "文章 ID"
// @Param v1 query int64 true "版本 1"
// @Param v2 query int64 true "版本 2"
// @Success 200 {object} pkgapp.Res{data=dto.RevisionCompareDTO} "成功"
// @Router /api/article/revision/compare [get]
func (h *RevisionHandler) Compare(c *gin.Context) {
	params := &dto.RevisionCompareRequest{}
	if !h.bind(c, "RevisionHandler.Compare", params) {
		return
	}

	ctx := c.Request.Context()
	out, err := h.App.RevisionService.Compare(ctx, params.ArticleID, params.V1, params.V2)
	if err != nil {
		h.logError(ctx, "RevisionHandler.Compare", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(out))
}

// Restore 将文章恢复到指定版本，并记录为新版本
// @Summary 恢复修订
// @Tags 修订
// @Accept json
// @Produce json
// @Param params body dto.RevisionRestoreRequest true "恢复参数"
// @Success 200 {object} pkgapp.Res{data=dto.RevisionRestoreDTO} "成功"
// @Router /api/article/revision/restore [put]
func (h *RevisionHandler) Restore(c *gin.Context) {
	params := &dto.RevisionRestoreRequest{}
	if !h.bind(c, "RevisionHandler.Restore", params) {
		return
	}

	ctx := c.Request.Context()
	out, err := h.App.RevisionService.Restore(ctx, params.ArticleID, params.Version, params.EditedBy)
	if err != nil {
		h.logError(ctx, "RevisionHandler.Restore", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(out))
}

// Audit 检查文章修订历史的完整性
// @Summary 修订完整性检查
// @Tags 修订
// @Produce json
// @Param id query int64 true "文章 ID"
// @Success 200 {object} pkgapp.Res{data=dto.RevisionAuditDTO} "成功"
// @Router /api/article/revision/audit [get]
func (h *RevisionHandler) Audit(c *gin.Context) {
	params := &dto.RevisionAuditRequest{}
	if !h.bind(c, "RevisionHandler.Audit", params) {
		return
	}

	ctx := c.Request.Context()
	out, err := h.App.RevisionService.Audit(ctx, params.ArticleID)
	if err != nil {
		h.logError(ctx, "RevisionHandler.Audit", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(out))
}
