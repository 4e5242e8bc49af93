package domain

import (
	"errors"
	"time"
)

// ChangeType 修订产生方式
type ChangeType string

const (
	ChangeCreate  ChangeType = "create"  // 新建文章
	ChangeUpdate  ChangeType = "update"  // 编辑文章
	ChangeRestore ChangeType = "restore" // 从历史版本恢复
	ChangeManual  ChangeType = "manual"  // 直接提交修订
)

// ErrDuplicateVersion is returned by RevisionRepository.Create when (articleID, version) is taken
// ErrDuplicateVersion 版本号已被占用（违反唯一约束）
var ErrDuplicateVersion = errors.New("revision version already exists")

// Revision is an immutable snapshot of an article's fields at one version
// Revision 文章在某一版本的不可变快照
type Revision struct {
	ID                int64
	ArticleID         int64
	Version           int64
	Fields            RevisionFields
	EditedBy          string
	ChangeDescription string
	ChangeType        ChangeType
	RestoredFrom      int64  // 恢复来源版本，非恢复为 0
	ContentHash       string // Fields.Hash()，写入时计算并落库
	CreatedAt         time.Time
}

// RevisionInput is everything the writer needs to commit one snapshot
// RevisionInput 写入一条修订所需的全部输入
type RevisionInput struct {
	ArticleID         int64          `json:"articleId"`
	Fields            RevisionFields `json:"fields"`
	EditedBy          string         `json:"editedBy"`
	ChangeDescription string         `json:"changeDescription"`
	ChangeType        ChangeType     `json:"changeType"`
	RestoredFrom      int64          `json:"restoredFrom,omitempty"`
}
