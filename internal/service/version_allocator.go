package service

import (
	"context"

	"github.com/medref/revision-service/internal/domain"
)

// VersionAllocator computes the next version number of an article.
// The number is only a proposal: the unique (article_id, version) index
// decides who gets it, and a loser asks again.
// VersionAllocator 计算文章的下一个版本号；该号码只是提议，由唯一索引裁决，失败方重新申请
type VersionAllocator interface {
	// Next returns 1 for an article without revisions, otherwise max+1
	// Next 无修订时返回 1，否则返回当前最大版本号 + 1
	Next(ctx context.Context, articleID int64) (int64, error)
}

type versionAllocator struct {
	revisionRepo domain.RevisionRepository
}

// NewVersionAllocator creates VersionAllocator instance
// NewVersionAllocator 创建 VersionAllocator 实例
func NewVersionAllocator(revisionRepo domain.RevisionRepository) VersionAllocator {
	return &versionAllocator{revisionRepo: revisionRepo}
}

func (a *versionAllocator) Next(ctx context.Context, articleID int64) (int64, error) {
	latest, err := a.revisionRepo.GetLatestVersion(ctx, articleID)
	if err != nil {
		return 0, err
	}
	return latest + 1, nil
}
