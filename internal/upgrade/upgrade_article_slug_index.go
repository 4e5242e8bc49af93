package upgrade

import (
	"context"
	"fmt"

	"github.com/medref/revision-service/internal/model"

	"gorm.io/gorm"
)

// ArticleSlugIndexMigrate adds the unique slug index to the live article table.
// The slug column is shared with article_revision, where it must stay non-unique,
// so the index is created here instead of through a struct tag.
// ArticleSlugIndexMigrate 为 article 表添加唯一别名索引
type ArticleSlugIndexMigrate struct{}

const articleSlugIndex = "idx_article_slug"

func (m *ArticleSlugIndexMigrate) Version() string {
	return "0.2.0"
}

func (m *ArticleSlugIndexMigrate) Description() string {
	return "Add unique index on article.slug"
}

func (m *ArticleSlugIndexMigrate) Up(db *gorm.DB, ctx context.Context) error {
	tx := db.WithContext(ctx)
	if tx.Migrator().HasIndex(&model.Article{}, articleSlugIndex) {
		return nil
	}
	sql := fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (slug)", articleSlugIndex, model.TableNameArticle)
	return tx.Exec(sql).Error
}
