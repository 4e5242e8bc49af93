package service

import (
	"context"
	"errors"

	"github.com/medref/revision-service/internal/domain"
	"github.com/medref/revision-service/internal/dto"
	"github.com/medref/revision-service/pkg/code"
	"github.com/medref/revision-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ArticleService defines the article business service interface.
// Every successful write is followed by exactly one revision.
// ArticleService 定义文章业务服务接口，每次成功写入后紧跟一条修订
type ArticleService interface {
	// Create 创建文章并写入第 1 版
	Create(ctx context.Context, params *dto.ArticleCreateRequest) (*dto.ArticleWriteDTO, error)

	// Get 按 ID 或别名获取文章
	Get(ctx context.Context, params *dto.ArticleGetRequest) (*dto.ArticleDTO, error)

	// Update 更新文章并写入新版本
	Update(ctx context.Context, params *dto.ArticleUpdateRequest) (*dto.ArticleWriteDTO, error)
}

type articleService struct {
	articleRepo domain.ArticleRepository // Article repository // 文章仓储
	documents   DocumentStore            // Live article store // 线上文章存储
	revisions   RevisionService          // Revision writer // 修订写入
	logger      *zap.Logger              // Logger // 日志对象
}

// NewArticleService creates ArticleService instance
// NewArticleService 创建 ArticleService 实例
func NewArticleService(articleRepo domain.ArticleRepository, documents DocumentStore, revisions RevisionService, logger *zap.Logger) ArticleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &articleService{
		articleRepo: articleRepo,
		documents:   documents,
		revisions:   revisions,
		logger:      logger,
	}
}

func (s *articleService) Create(ctx context.Context, params *dto.ArticleCreateRequest) (*dto.ArticleWriteDTO, error) {
	if err := params.RevisionFields.Validate(); err != nil {
		return nil, validationError(err)
	}
	if err := s.ensureSlugFree(ctx, params.Slug, 0); err != nil {
		return nil, err
	}

	article, err := s.articleRepo.Create(ctx, &domain.Article{Fields: params.RevisionFields})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateSlug) {
			return nil, code.ErrorArticleSlugExists.WithDetails(params.Slug)
		}
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	rev, err := s.revisions.Commit(ctx, &domain.RevisionInput{
		ArticleID:         article.ID,
		Fields:            article.Fields,
		EditedBy:          params.EditedBy,
		ChangeDescription: params.ChangeDescription,
		ChangeType:        domain.ChangeCreate,
	})
	if err != nil {
		s.logger.Error("article created without initial revision",
			zap.Int64(logger.FieldArticleID, article.ID),
			zap.Error(err))
		return nil, err
	}

	return &dto.ArticleWriteDTO{Article: articleToDTO(article), Revision: revisionToDTO(rev)}, nil
}

func (s *articleService) Get(ctx context.Context, params *dto.ArticleGetRequest) (*dto.ArticleDTO, error) {
	if params.ID > 0 {
		article, err := s.documents.GetCurrent(ctx, params.ID)
		if err != nil {
			return nil, err
		}
		return articleToDTO(article), nil
	}

	article, err := s.articleRepo.GetBySlug(ctx, params.Slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorArticleNotFound
		}
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	return articleToDTO(article), nil
}

func (s *articleService) Update(ctx context.Context, params *dto.ArticleUpdateRequest) (*dto.ArticleWriteDTO, error) {
	if err := params.RevisionFields.Validate(); err != nil {
		return nil, validationError(err)
	}
	if err := s.ensureSlugFree(ctx, params.Slug, params.ID); err != nil {
		return nil, err
	}

	// 文章写入持久化之后才调用修订写入
	article, err := s.documents.SetCurrent(ctx, params.ID, params.RevisionFields)
	if err != nil {
		return nil, err
	}

	rev, err := s.revisions.Commit(ctx, &domain.RevisionInput{
		ArticleID:         article.ID,
		Fields:            article.Fields,
		EditedBy:          params.EditedBy,
		ChangeDescription: params.ChangeDescription,
		ChangeType:        domain.ChangeUpdate,
	})
	if err != nil {
		s.logger.Error("article updated without revision",
			zap.Int64(logger.FieldArticleID, article.ID),
			zap.Error(err))
		return nil, err
	}

	return &dto.ArticleWriteDTO{Article: articleToDTO(article), Revision: revisionToDTO(rev)}, nil
}

// ensureSlugFree 检查别名未被其他文章占用
func (s *articleService) ensureSlugFree(ctx context.Context, slug string, selfID int64) error {
	existing, err := s.articleRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return code.ErrorDBQuery.WithDetails(err.Error())
	}
	if existing != nil && existing.ID != selfID {
		return code.ErrorArticleSlugExists.WithDetails(slug)
	}
	return nil
}
