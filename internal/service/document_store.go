package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/medref/revision-service/internal/domain"
	"github.com/medref/revision-service/pkg/code"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// DocumentStore is the live-article collaborator of the revision engine.
// The engine reads and overwrites articles only through it.
// DocumentStore 修订引擎访问线上文章的唯一入口
type DocumentStore interface {
	// GetCurrent 获取文章当前状态
	GetCurrent(ctx context.Context, articleID int64) (*domain.Article, error)

	// SetCurrent 覆盖文章的版本化字段
	SetCurrent(ctx context.Context, articleID int64, fields domain.RevisionFields) (*domain.Article, error)
}

type documentStore struct {
	articleRepo domain.ArticleRepository
	sf          *singleflight.Group
}

// NewDocumentStore creates DocumentStore instance backed by the article repository
// NewDocumentStore 基于文章仓储创建 DocumentStore
func NewDocumentStore(articleRepo domain.ArticleRepository) DocumentStore {
	return &documentStore{articleRepo: articleRepo, sf: &singleflight.Group{}}
}

// GetCurrent 合并同一文章的并发读取；共享查询不随任一调用方取消
func (d *documentStore) GetCurrent(ctx context.Context, articleID int64) (*domain.Article, error) {
	shared := context.WithoutCancel(ctx)
	ch := d.sf.DoChan("article:"+strconv.FormatInt(articleID, 10), func() (interface{}, error) {
		return d.articleRepo.GetByID(shared, articleID)
	})

	select {
	case <-ctx.Done():
		return nil, code.ErrorTimeout.WithDetails(ctx.Err().Error())
	case res := <-ch:
		if res.Err != nil {
			if errors.Is(res.Err, gorm.ErrRecordNotFound) {
				return nil, code.ErrorArticleNotFound
			}
			return nil, code.ErrorDBQuery.WithDetails(res.Err.Error())
		}
		article := *res.Val.(*domain.Article)
		return &article, nil
	}
}

func (d *documentStore) SetCurrent(ctx context.Context, articleID int64, fields domain.RevisionFields) (*domain.Article, error) {
	article, err := d.articleRepo.UpdateFields(ctx, articleID, fields)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, code.ErrorArticleNotFound
		case errors.Is(err, domain.ErrDuplicateSlug):
			return nil, code.ErrorArticleSlugExists.WithDetails(fields.Slug)
		}
		return nil, code.ErrorArticleUpdateFailed.WithDetails(err.Error())
	}
	return article, nil
}
