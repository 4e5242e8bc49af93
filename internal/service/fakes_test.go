package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/medref/revision-service/internal/domain"

	"gorm.io/gorm"
)

// fakeRevisionRepo 内存修订仓储，强制 (articleID, version) 唯一
type fakeRevisionRepo struct {
	domain.RevisionRepository

	mu        sync.Mutex
	nextID    int64
	rows      map[int64]map[int64]*domain.Revision
	createErr func(rev *domain.Revision) error // 注入写入失败
	creates   int
}

func newFakeRevisionRepo() *fakeRevisionRepo {
	return &fakeRevisionRepo{rows: map[int64]map[int64]*domain.Revision{}}
}

func (f *fakeRevisionRepo) GetLatestVersion(ctx context.Context, articleID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var max int64
	for v := range f.rows[articleID] {
		if v > max {
			max = v
		}
	}
	return max, nil
}

func (f *fakeRevisionRepo) Create(ctx context.Context, rev *domain.Revision) (*domain.Revision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		if err := f.createErr(rev); err != nil {
			return nil, err
		}
	}
	if f.rows[rev.ArticleID] == nil {
		f.rows[rev.ArticleID] = map[int64]*domain.Revision{}
	}
	if _, ok := f.rows[rev.ArticleID][rev.Version]; ok {
		return nil, domain.ErrDuplicateVersion
	}
	f.nextID++
	stored := *rev
	stored.ID = f.nextID
	f.rows[rev.ArticleID][rev.Version] = &stored
	out := stored
	return &out, nil
}

func (f *fakeRevisionRepo) GetByVersion(ctx context.Context, articleID, version int64) (*domain.Revision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rev, ok := f.rows[articleID][version]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *rev
	return &out, nil
}

func (f *fakeRevisionRepo) GetLatest(ctx context.Context, articleID int64) (*domain.Revision, error) {
	latest, _ := f.GetLatestVersion(ctx, articleID)
	return f.GetByVersion(ctx, articleID, latest)
}

func (f *fakeRevisionRepo) sortedDesc(articleID int64) []*domain.Revision {
	var out []*domain.Revision
	for _, r := range f.rows[articleID] {
		c := *r
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out
}

func (f *fakeRevisionRepo) List(ctx context.Context, articleID int64, page, pageSize int) ([]*domain.Revision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.sortedDesc(articleID)
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []*domain.Revision{}, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (f *fakeRevisionRepo) Count(ctx context.Context, articleID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.rows[articleID])), nil
}

func (f *fakeRevisionRepo) ListVersions(ctx context.Context, articleID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int64
	for v := range f.rows[articleID] {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// put 直接写入一条修订（绕过分配器），用于构造缺口
func (f *fakeRevisionRepo) put(rev domain.Revision) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rows[rev.ArticleID] == nil {
		f.rows[rev.ArticleID] = map[int64]*domain.Revision{}
	}
	f.rows[rev.ArticleID][rev.Version] = &rev
}

// fakeArticleRepo 内存文章仓储
type fakeArticleRepo struct {
	mu        sync.Mutex
	nextID    int64
	rows      map[int64]*domain.Article
	updateErr error
	getHook   func(ctx context.Context) // 在读取前调用，不持锁
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{rows: map[int64]*domain.Article{}}
}

func (f *fakeArticleRepo) GetByID(ctx context.Context, id int64) (*domain.Article, error) {
	if f.getHook != nil {
		f.getHook(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *a
	return &out, nil
}

func (f *fakeArticleRepo) GetBySlug(ctx context.Context, slug string) (*domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.rows {
		if a.Fields.Slug == slug {
			out := *a
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeArticleRepo) Create(ctx context.Context, article *domain.Article) (*domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	now := time.Now()
	stored := *article
	stored.ID = f.nextID
	stored.CreatedAt, stored.UpdatedAt = now, now
	f.rows[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (f *fakeArticleRepo) UpdateFields(ctx context.Context, id int64, fields domain.RevisionFields) (*domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	a, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	a.Fields = fields
	a.UpdatedAt = time.Now()
	out := *a
	return &out, nil
}

func (f *fakeArticleRepo) ListIDs(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for id := range f.rows {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func fieldsTitled(title string) domain.RevisionFields {
	return domain.RevisionFields{
		Title:   title,
		Slug:    "ferritin",
		Content: "Serum ferritin reflects iron stores. " + title,
		Tags:    []string{"iron"},
		ReferenceRanges: []domain.ReferenceRange{
			{Parameter: "Ferritin", Range: "30-400", Unit: "ng/mL", AgeGroup: domain.AgeGroupAdult},
		},
		Status: domain.StatusPublished,
	}
}

type fixture struct {
	articles  *fakeArticleRepo
	revisions *fakeRevisionRepo
	docs      DocumentStore
	revSvc    RevisionService
	artSvc    ArticleService
}

func newFixture(cfg *ServiceConfig) *fixture {
	f := &fixture{articles: newFakeArticleRepo(), revisions: newFakeRevisionRepo()}
	f.docs = NewDocumentStore(f.articles)
	f.revSvc = NewRevisionService(f.revisions, NewVersionAllocator(f.revisions), f.docs, nil, cfg)
	f.artSvc = NewArticleService(f.articles, f.docs, f.revSvc, nil)
	return f
}
