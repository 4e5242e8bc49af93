package api_router

import (
	"github.com/medref/revision-service/internal/app"
	"github.com/medref/revision-service/internal/dto"
	pkgapp "github.com/medref/revision-service/pkg/app"
	"github.com/medref/revision-service/pkg/code"
	apperrors "github.com/medref/revision-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ArticleHandler 文章 API 路由处理器
// 文章写入成功后由服务层记录修订
type ArticleHandler struct {
	*Handler
}

// NewArticleHandler 创建 ArticleHandler 实例
func NewArticleHandler(a *app.App) *ArticleHandler {
	return &ArticleHandler{Handler: NewHandler(a)}
}

// Create 创建文章并写入第 1 版
// @Summary 创建文章
// @Tags 文章
// @Accept json
// @Produce json
// @Param params body dto.ArticleCreateRequest true "文章内容"
// @Success 200 {object} pkgapp.Res{data=dto.ArticleWriteDTO} "成功"
// @Router /api/article [post]
func (h *ArticleHandler) Create(c *gin.Context) {
	params := &dto.ArticleCreateRequest{}
	if !h.bind(c, "ArticleHandler.Create", params) {
		return
	}

	ctx := c.Request.Context()
	out, err := h.App.ArticleService.Create(ctx, params)
	if err != nil {
		h.logError(ctx, "ArticleHandler.Create", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(out))
}

// Get 按 ID 或别名获取文章
// @Summary 获取文章
// @Tags 文章
// @Produce json
// @Param id query int64 false "文章 ID"
// @Param slug query string false "文章别名"
// @Success 200 {object} pkgapp.Res{data=dto.ArticleDTO} "成功"
// @Router /api/article [get]
func (h *ArticleHandler) Get(c *gin.Context) {
	params := &dto.ArticleGetRequest{}
	if !h.bind(c, "ArticleHandler.Get", params) {
		return
	}

	ctx := c.Request.Context()
	article, err := h.App.ArticleService.Get(ctx, params)
	if err != nil {
		h.logError(ctx, "ArticleHandler.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(article))
}

// Update 更新文章并写入新版本
// @Summary 更新文章
// @Tags 文章
// @Accept json
// @Produce json
// @Param params body dto.ArticleUpdateRequest true "文章内容"
// @Success 200 {object} pkgapp.Res{data=dto.ArticleWriteDTO} "成功"
// @Router /api/article [put]
func (h *ArticleHandler) Update(c *gin.Context) {
	params := &dto.ArticleUpdateRequest{}
	if !h.bind(c, "ArticleHandler.Update", params) {
		return
	}

	ctx := c.Request.Context()
	out, err := h.App.ArticleService.Update(ctx, params)
	if err != nil {
		h.logError(ctx, "ArticleHandler.Update", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(out))
}
