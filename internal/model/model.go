package model

import (
	"gorm.io/gorm"
)

// AutoMigrate migrates one table by key, "" migrates all of them
// AutoMigrate 按 key 迁移单张表，key 为空时迁移全部
func AutoMigrate(db *gorm.DB, key string) error {
	switch key {

	case "Article":
		return db.AutoMigrate(Article{})

	case "ArticleRevision":
		return db.AutoMigrate(ArticleRevision{})

	case "":
		return db.AutoMigrate(Article{}, ArticleRevision{})
	}
	return nil
}
