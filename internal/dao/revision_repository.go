package dao

import (
	"context"
	"database/sql"
	"time"

	"github.com/medref/revision-service/internal/domain"
	"github.com/medref/revision-service/internal/model"
	"github.com/medref/revision-service/pkg/app"
	"github.com/medref/revision-service/pkg/logger"
	"github.com/medref/revision-service/pkg/timex"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// revisionRepository 实现 domain.RevisionRepository 接口
//
// Revisions are append-only: there is no update or delete path here.
// 修订只追加，本仓储不提供更新与删除
type revisionRepository struct {
	dao *Dao
}

// NewRevisionRepository 创建 RevisionRepository 实例
func NewRevisionRepository(dao *Dao) domain.RevisionRepository {
	return &revisionRepository{dao: dao}
}

var _ domain.RevisionRepository = (*revisionRepository)(nil)

// toDomain 将数据库模型转换为领域模型
func (r *revisionRepository) toDomain(m *model.ArticleRevision) *domain.Revision {
	if m == nil {
		return nil
	}
	return &domain.Revision{
		ID:                m.ID,
		ArticleID:         m.ArticleID,
		Version:           m.Version,
		Fields:            m.ArticleFields.Domain(),
		EditedBy:          m.EditedBy,
		ChangeDescription: m.ChangeDescription,
		ChangeType:        domain.ChangeType(m.ChangeType),
		RestoredFrom:      m.RestoredFrom,
		ContentHash:       m.ContentHash,
		CreatedAt:         time.Time(m.CreatedAt),
	}
}

// primary 版本分配必须读主库，避免副本延迟导致重复分配
func (r *revisionRepository) primary(ctx context.Context) *gorm.DB {
	return r.dao.WithContext(ctx).Clauses(dbresolver.Write)
}

// GetLatestVersion 获取当前最大版本号，无修订时返回 0
func (r *revisionRepository) GetLatestVersion(ctx context.Context, articleID int64) (int64, error) {
	var latest sql.NullInt64
	err := r.primary(ctx).Model(&model.ArticleRevision{}).
		Where("article_id = ?", articleID).
		Select("MAX(version)").
		Row().Scan(&latest)
	if err != nil {
		return 0, err
	}
	return latest.Int64, nil
}

// Create 写入修订；(article_id, version) 冲突时返回 domain.ErrDuplicateVersion
func (r *revisionRepository) Create(ctx context.Context, revision *domain.Revision) (*domain.Revision, error) {
	createdAt := revision.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	m := &model.ArticleRevision{
		ArticleID:         revision.ArticleID,
		Version:           revision.Version,
		ArticleFields:     model.NewArticleFields(revision.Fields),
		EditedBy:          revision.EditedBy,
		ChangeDescription: revision.ChangeDescription,
		ChangeType:        string(revision.ChangeType),
		RestoredFrom:      revision.RestoredFrom,
		ContentHash:       revision.Fields.Hash(),
		CreatedAt:         timex.Time(createdAt),
	}

	if err := r.primary(ctx).Create(m).Error; err != nil {
		if isDuplicateKey(err) {
			r.dao.Logger().Debug("revision version taken",
				zap.Int64(logger.FieldArticleID, revision.ArticleID),
				zap.Int64(logger.FieldVersion, revision.Version),
				zap.String(logger.FieldMethod, "revisionRepository.Create"))
			return nil, domain.ErrDuplicateVersion
		}
		return nil, err
	}
	return r.toDomain(m), nil
}

// GetByVersion 根据版本号获取修订
func (r *revisionRepository) GetByVersion(ctx context.Context, articleID, version int64) (*domain.Revision, error) {
	var m model.ArticleRevision
	err := r.dao.WithContext(ctx).
		Where("article_id = ? AND version = ?", articleID, version).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// GetLatest 获取最新修订
func (r *revisionRepository) GetLatest(ctx context.Context, articleID int64) (*domain.Revision, error) {
	var m model.ArticleRevision
	err := r.primary(ctx).
		Where("article_id = ?", articleID).
		Order("version DESC").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// List 按版本号降序分页获取修订
func (r *revisionRepository) List(ctx context.Context, articleID int64, page, pageSize int) ([]*domain.Revision, error) {
	var modelList []*model.ArticleRevision
	err := r.dao.WithContext(ctx).
		Where("article_id = ?", articleID).
		Order("version DESC").
		Limit(pageSize).
		Offset(app.GetPageOffset(page, pageSize)).
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}

	results := make([]*domain.Revision, 0, len(modelList))
	for _, m := range modelList {
		results = append(results, r.toDomain(m))
	}
	return results, nil
}

// Count 获取修订数量
func (r *revisionRepository) Count(ctx context.Context, articleID int64) (int64, error) {
	var count int64
	err := r.dao.WithContext(ctx).Model(&model.ArticleRevision{}).
		Where("article_id = ?", articleID).
		Count(&count).Error
	return count, err
}

// ListVersions 按升序获取全部版本号
func (r *revisionRepository) ListVersions(ctx context.Context, articleID int64) ([]int64, error) {
	var versions []int64
	err := r.dao.WithContext(ctx).Model(&model.ArticleRevision{}).
		Where("article_id = ?", articleID).
		Order("version ASC").
		Pluck("version", &versions).Error
	if err != nil {
		return nil, err
	}
	return versions, nil
}
