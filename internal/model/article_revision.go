package model

import (
	"github.com/medref/revision-service/pkg/timex"
)

const TableNameArticleRevision = "article_revision"

// ArticleRevision mapped from table <article_revision>
//
// (article_id, version) is unique: concurrent writers racing on the same
// version number lose at the database, not in process memory.
// (article_id, version) 唯一，并发写入同一版本号时由数据库裁决
type ArticleRevision struct {
	ID                int64      `gorm:"column:id;primaryKey" json:"id" form:"id"`
	ArticleID         int64      `gorm:"column:article_id;not null;uniqueIndex:idx_article_version,priority:1" json:"articleId" form:"articleId"`
	Version           int64      `gorm:"column:version;not null;uniqueIndex:idx_article_version,priority:2" json:"version" form:"version"`
	ArticleFields     `gorm:"embedded"`
	EditedBy          string     `gorm:"column:edited_by;not null;default:admin" json:"editedBy" form:"editedBy"`
	ChangeDescription string     `gorm:"column:change_description;type:text" json:"changeDescription" form:"changeDescription"`
	ChangeType        string     `gorm:"column:change_type;size:16;not null;default:update" json:"changeType" form:"changeType"`
	RestoredFrom      int64      `gorm:"column:restored_from;not null;default:0" json:"restoredFrom" form:"restoredFrom"`
	ContentHash       string     `gorm:"column:content_hash;size:32" json:"contentHash" form:"contentHash"`
	CreatedAt         timex.Time `gorm:"column:created_at;default:NULL;autoCreateTime:false;index:idx_revision_created" json:"createdAt" form:"createdAt"`
}

// TableName ArticleRevision's table name
func (*ArticleRevision) TableName() string {
	return TableNameArticleRevision
}
