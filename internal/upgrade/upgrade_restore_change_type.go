package upgrade

import (
	"context"

	"github.com/medref/revision-service/internal/domain"
	"github.com/medref/revision-service/internal/model"

	"gorm.io/gorm"
)

// RestoreChangeTypeMigrate 将带有 restored_from 的旧修订统一标记为 restore
type RestoreChangeTypeMigrate struct{}

func (m *RestoreChangeTypeMigrate) Version() string {
	return "0.3.0"
}

func (m *RestoreChangeTypeMigrate) Description() string {
	return "Mark revisions with restored_from as restore"
}

func (m *RestoreChangeTypeMigrate) Up(db *gorm.DB, ctx context.Context) error {
	return db.WithContext(ctx).
		Model(&model.ArticleRevision{}).
		Where("restored_from > ? AND change_type <> ?", 0, string(domain.ChangeRestore)).
		Update("change_type", string(domain.ChangeRestore)).Error
}
