package dto

import (
	"github.com/medref/revision-service/internal/domain"
	"github.com/medref/revision-service/pkg/timex"
)

// ArticleCreateRequest Request parameters for creating an article
// 创建文章请求参数（字段校验在领域层完成）
type ArticleCreateRequest struct {
	domain.RevisionFields
	EditedBy          string `json:"editedBy" form:"editedBy"`
	ChangeDescription string `json:"changeDescription" form:"changeDescription"`
}

// ArticleUpdateRequest 更新文章请求参数
type ArticleUpdateRequest struct {
	ID int64 `json:"id" form:"id" binding:"required,gt=0"`
	domain.RevisionFields
	EditedBy          string `json:"editedBy" form:"editedBy"`
	ChangeDescription string `json:"changeDescription" form:"changeDescription"`
}

// ArticleGetRequest 获取文章请求参数，ID 与 Slug 二选一
type ArticleGetRequest struct {
	ID   int64  `json:"id" form:"id" binding:"required_without=Slug"`
	Slug string `json:"slug" form:"slug"`
}

// ArticleDTO Article data transfer object
// 文章数据传输对象
type ArticleDTO struct {
	ID int64 `json:"id"`
	domain.RevisionFields
	ViewCount int64      `json:"viewCount"`
	CreatedAt timex.Time `json:"createdAt"`
	UpdatedAt timex.Time `json:"updatedAt"`
}

// ArticleWriteDTO 文章写入结果：线上文章与随之生成的修订
type ArticleWriteDTO struct {
	Article  *ArticleDTO  `json:"article"`
	Revision *RevisionDTO `json:"revision"`
}
