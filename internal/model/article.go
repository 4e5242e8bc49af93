package model

import (
	"github.com/medref/revision-service/pkg/timex"
)

const TableNameArticle = "article"

// Article mapped from table <article>
type Article struct {
	ID            int64      `gorm:"column:id;primaryKey" json:"id" form:"id"`
	ArticleFields `gorm:"embedded"`
	ViewCount     int64      `gorm:"column:view_count;not null;default:0" json:"viewCount" form:"viewCount"`
	CreatedAt     timex.Time `gorm:"column:created_at;default:NULL;autoCreateTime:false" json:"createdAt" form:"createdAt"`
	UpdatedAt     timex.Time `gorm:"column:updated_at;default:NULL;autoUpdateTime:false" json:"updatedAt" form:"updatedAt"`
}

// TableName Article's table name
func (*Article) TableName() string {
	return TableNameArticle
}
