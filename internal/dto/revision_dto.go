package dto

import (
	"github.com/medref/revision-service/internal/domain"
	"github.com/medref/revision-service/pkg/diff"
	"github.com/medref/revision-service/pkg/timex"
)

// RevisionCreateRequest Request parameters for committing a revision
// 提交修订请求参数
type RevisionCreateRequest struct {
	ArticleID int64 `json:"articleId" form:"articleId" binding:"required,gt=0"`
	domain.RevisionFields
	EditedBy          string `json:"editedBy" form:"editedBy"`
	ChangeDescription string `json:"changeDescription" form:"changeDescription"`
}

// RevisionListRequest 修订列表请求参数（分页参数由 pager 读取）
type RevisionListRequest struct {
	ArticleID int64 `json:"id" form:"id" binding:"required,gt=0"`
}

// RevisionGetRequest 获取单个修订请求参数
type RevisionGetRequest struct {
	ArticleID int64 `json:"id" form:"id" binding:"required,gt=0"`
	Version   int64 `json:"version" form:"version" binding:"required,gt=0"`
}

// RevisionCompareRequest 修订对比请求参数
type RevisionCompareRequest struct {
	ArticleID int64 `json:"id" form:"id" binding:"required,gt=0"`
	V1        int64 `json:"v1" form:"v1" binding:"required,gt=0"`
	V2        int64 `json:"v2" form:"v2" binding:"required,gt=0"`
}

// RevisionRestoreRequest Request parameters for restoring a historical version
// 历史版本恢复请求参数
type RevisionRestoreRequest struct {
	ArticleID int64  `json:"id" form:"id" binding:"required,gt=0"`
	Version   int64  `json:"version" form:"version" binding:"required,gt=0"`
	EditedBy  string `json:"editedBy" form:"editedBy"`
}

// RevisionAuditRequest 修订完整性检查请求参数
type RevisionAuditRequest struct {
	ArticleID int64 `json:"id" form:"id" binding:"required,gt=0"`
}

// RevisionDTO Revision data transfer object
// 修订数据传输对象
type RevisionDTO struct {
	ID        int64 `json:"id"`
	ArticleID int64 `json:"articleId"`
	Version   int64 `json:"version"`
	domain.RevisionFields
	EditedBy          string     `json:"editedBy"`
	ChangeDescription string     `json:"changeDescription"`
	ChangeType        string     `json:"changeType"`
	RestoredFrom      int64      `json:"restoredFrom,omitempty"`
	ContentHash       string     `json:"contentHash"`
	CreatedAt         timex.Time `json:"createdAt"`
}

// RevisionListDTO 修订分页列表
type RevisionListDTO struct {
	Data       []*RevisionDTO `json:"data"`
	Pagination PaginationDTO  `json:"pagination"`
}

// RevisionCompareDTO 两个修订的对比结果
type RevisionCompareDTO struct {
	Version1     *RevisionDTO                `json:"version1"`
	Version2     *RevisionDTO                `json:"version2"`
	Differences  map[string]bool             `json:"differences"`
	Fields       map[string]domain.FieldDiff `json:"fields"`
	Changed      []string                    `json:"changed"`
	ContentDiff  []diff.Segment              `json:"contentDiff,omitempty"`
	ContentStats diff.Stats                  `json:"contentStats"`
}

// RevisionRestoreDTO 恢复结果
type RevisionRestoreDTO struct {
	Article      *ArticleDTO  `json:"article"`
	Revision     *RevisionDTO `json:"revision"`
	RestoredFrom int64        `json:"restoredFrom"`
}

// RevisionAuditDTO 修订完整性检查结果
type RevisionAuditDTO struct {
	ArticleID       int64    `json:"articleId"`
	Count           int64    `json:"count"`
	LatestVersion   int64    `json:"latestVersion"`
	Contiguous      bool     `json:"contiguous"`      // 版本号恰为 1..N
	MissingVersions []int64  `json:"missingVersions"` // 1..N 中缺失的版本号
	InSync          bool     `json:"inSync"`          // 线上文章与最新修订一致
	DriftFields     []string `json:"driftFields"`     // 不一致的字段
}
