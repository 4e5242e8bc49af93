package dao

import (
	"context"
	"time"

	"github.com/medref/revision-service/internal/domain"
	"github.com/medref/revision-service/internal/model"
	"github.com/medref/revision-service/pkg/timex"

	"gorm.io/gorm"
)

// articleWriteKey 新建文章尚无ID，统一使用 0 号队列
const articleWriteKey int64 = 0

// articleRepository 实现 domain.ArticleRepository 接口
type articleRepository struct {
	dao *Dao
}

// NewArticleRepository 创建 ArticleRepository 实例
func NewArticleRepository(dao *Dao) domain.ArticleRepository {
	return &articleRepository{dao: dao}
}

var _ domain.ArticleRepository = (*articleRepository)(nil)

// toDomain 将数据库模型转换为领域模型
func (r *articleRepository) toDomain(m *model.Article) *domain.Article {
	if m == nil {
		return nil
	}
	return &domain.Article{
		ID:        m.ID,
		Fields:    m.ArticleFields.Domain(),
		ViewCount: m.ViewCount,
		CreatedAt: time.Time(m.CreatedAt),
		UpdatedAt: time.Time(m.UpdatedAt),
	}
}

// GetByID 根据ID获取文章
func (r *articleRepository) GetByID(ctx context.Context, id int64) (*domain.Article, error) {
	var m model.Article
	if err := r.dao.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// GetBySlug 根据别名获取文章
func (r *articleRepository) GetBySlug(ctx context.Context, slug string) (*domain.Article, error) {
	var m model.Article
	if err := r.dao.WithContext(ctx).Where("slug = ?", slug).First(&m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// Create 创建文章
func (r *articleRepository) Create(ctx context.Context, article *domain.Article) (*domain.Article, error) {
	var result *domain.Article
	err := r.dao.ExecuteWrite(ctx, articleWriteKey, func(db *gorm.DB) error {
		now := timex.Now()
		m := &model.Article{
			ArticleFields: model.NewArticleFields(article.Fields),
			ViewCount:     article.ViewCount,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := db.Create(m).Error; err != nil {
			if isDuplicateKey(err) {
				return domain.ErrDuplicateSlug
			}
			return err
		}
		result = r.toDomain(m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateFields 覆盖版本化字段，id、浏览量与创建时间保持不变
func (r *articleRepository) UpdateFields(ctx context.Context, id int64, fields domain.RevisionFields) (*domain.Article, error) {
	var result *domain.Article
	err := r.dao.ExecuteWrite(ctx, id, func(db *gorm.DB) error {
		cols := model.NewArticleFields(fields).UpdateColumns()
		cols["updated_at"] = timex.Now()

		tx := db.Model(&model.Article{}).Where("id = ?", id).Updates(cols)
		if tx.Error != nil {
			if isDuplicateKey(tx.Error) {
				return domain.ErrDuplicateSlug
			}
			return tx.Error
		}
		if tx.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var m model.Article
		if err := db.Where("id = ?", id).First(&m).Error; err != nil {
			return err
		}
		result = r.toDomain(&m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListIDs 按ID升序分批获取文章ID
func (r *articleRepository) ListIDs(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	var ids []int64
	err := r.dao.WithContext(ctx).Model(&model.Article{}).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
