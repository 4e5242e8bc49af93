package domain

import "context"

// ArticleRepository 文章仓储接口（文档存储）
type ArticleRepository interface {
	// GetByID 根据ID获取文章
	GetByID(ctx context.Context, id int64) (*Article, error)

	// GetBySlug 根据别名获取文章
	GetBySlug(ctx context.Context, slug string) (*Article, error)

	// Create 创建文章
	Create(ctx context.Context, article *Article) (*Article, error)

	// UpdateFields 覆盖文章的版本化字段，不触碰浏览量与创建时间
	UpdateFields(ctx context.Context, id int64, fields RevisionFields) (*Article, error)

	// ListIDs 按ID升序分批获取文章ID
	ListIDs(ctx context.Context, afterID int64, limit int) ([]int64, error)
}

// RevisionRepository 修订仓储接口（快照存储，只追加）
type RevisionRepository interface {
	// GetLatestVersion 获取文章当前最大版本号，无修订时返回 0
	GetLatestVersion(ctx context.Context, articleID int64) (int64, error)

	// Create 写入修订；版本号冲突时返回 ErrDuplicateVersion
	Create(ctx context.Context, revision *Revision) (*Revision, error)

	// GetByVersion 根据版本号获取修订
	GetByVersion(ctx context.Context, articleID, version int64) (*Revision, error)

	// GetLatest 获取最新修订
	GetLatest(ctx context.Context, articleID int64) (*Revision, error)

	// List 按版本号降序分页获取修订
	List(ctx context.Context, articleID int64, page, pageSize int) ([]*Revision, error)

	// Count 获取修订数量
	Count(ctx context.Context, articleID int64) (int64, error)

	// ListVersions 按升序获取全部版本号
	ListVersions(ctx context.Context, articleID int64) ([]int64, error)
}
