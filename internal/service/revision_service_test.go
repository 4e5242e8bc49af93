package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/medref/revision-service/internal/domain"
	"github.com/medref/revision-service/internal/dto"
	"github.com/medref/revision-service/pkg/app"
	"github.com/medref/revision-service/pkg/code"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedArticle 创建文章并写入第 1 版
func seedArticle(t *testing.T, f *fixture, title string) int64 {
	t.Helper()
	out, err := f.artSvc.Create(context.Background(), &dto.ArticleCreateRequest{
		RevisionFields: fieldsTitled(title),
		EditedBy:       "dr.lee",
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), out.Revision.Version)
	return out.Article.ID
}

func commitTitle(t *testing.T, f *fixture, articleID int64, title string) *domain.Revision {
	t.Helper()
	rev, err := f.revSvc.Commit(context.Background(), &domain.RevisionInput{
		ArticleID: articleID,
		Fields:    fieldsTitled(title),
	})
	require.NoError(t, err)
	return rev
}

func TestVersionAllocator_Next(t *testing.T) {
	repo := newFakeRevisionRepo()
	alloc := NewVersionAllocator(repo)

	v, err := alloc.Next(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	repo.put(domain.Revision{ArticleID: 9, Version: 1})
	repo.put(domain.Revision{ArticleID: 9, Version: 2})
	v, err = alloc.Next(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
}

func TestCommit_SequentialVersionsAndDefaults(t *testing.T) {
	f := newFixture(nil)
	id := seedArticle(t, f, "A")

	for want := int64(2); want <= 5; want++ {
		rev := commitTitle(t, f, id, "T")
		assert.Equal(t, want, rev.Version)
		assert.Equal(t, "admin", rev.EditedBy)
		assert.Equal(t, domain.ChangeManual, rev.ChangeType)
		assert.Empty(t, rev.ChangeDescription)
		assert.False(t, rev.CreatedAt.IsZero())
	}
}

func TestCommit_ConcurrentVersionsAreGapFree(t *testing.T) {
	f := newFixture(&ServiceConfig{Revision: RevisionServiceConfig{MaxCommitAttempts: 64}})
	id := seedArticle(t, f, "A")

	const writers = 24
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		versions []int64
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rev, err := f.revSvc.Commit(context.Background(), &domain.RevisionInput{
				ArticleID: id,
				Fields:    fieldsTitled("concurrent"),
			})
			if err != nil {
				assert.True(t, errors.Is(err, code.ErrorVersionConflict), "unexpected error: %v", err)
				return
			}
			mu.Lock()
			versions = append(versions, rev.Version)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	for i, v := range versions {
		assert.Equal(t, int64(i+2), v)
	}

	stored, err := f.revisions.ListVersions(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, stored, len(versions)+1)
	assert.Empty(t, missingVersions(stored))
}

func TestCommit_RetryThenSucceed(t *testing.T) {
	f := newFixture(nil)
	id := seedArticle(t, f, "A")

	// 模拟另一写入者抢先写入了第 2 版
	raced := false
	f.revisions.createErr = func(rev *domain.Revision) error {
		if !raced {
			raced = true
			f.revisions.rows[rev.ArticleID][rev.Version] = &domain.Revision{ArticleID: rev.ArticleID, Version: rev.Version}
			return domain.ErrDuplicateVersion
		}
		return nil
	}

	rev := commitTitle(t, f, id, "B")
	assert.Equal(t, int64(3), rev.Version)
}

func TestCommit_RetriesExhausted(t *testing.T) {
	f := newFixture(nil)
	id := seedArticle(t, f, "A")
	f.revisions.creates = 0
	f.revisions.createErr = func(*domain.Revision) error { return domain.ErrDuplicateVersion }

	_, err := f.revSvc.Commit(context.Background(), &domain.RevisionInput{ArticleID: id, Fields: fieldsTitled("B")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, code.ErrorVersionConflict))
	assert.Equal(t, 3, f.revisions.creates)
}

func TestCommit_StorageErrorIsNotRetried(t *testing.T) {
	f := newFixture(nil)
	id := seedArticle(t, f, "A")
	f.revisions.creates = 0
	f.revisions.createErr = func(*domain.Revision) error { return errors.New("disk full") }

	_, err := f.revSvc.Commit(context.Background(), &domain.RevisionInput{ArticleID: id, Fields: fieldsTitled("B")})
	assert.True(t, errors.Is(err, code.ErrorDBQuery))
	assert.Equal(t, 1, f.revisions.creates)
}

func TestCommit_Validation(t *testing.T) {
	f := newFixture(nil)
	id := seedArticle(t, f, "A")

	tests := []struct {
		name   string
		in     *domain.RevisionInput
		expect *code.Code
	}{
		{name: "missing article", in: &domain.RevisionInput{Fields: fieldsTitled("B")}, expect: code.ErrorInvalidParams},
		{name: "empty title", in: &domain.RevisionInput{ArticleID: id, Fields: fieldsTitled("")}, expect: code.ErrorValidation},
		{name: "bad slug", in: func() *domain.RevisionInput {
			fields := fieldsTitled("B")
			fields.Slug = "Not A Slug"
			return &domain.RevisionInput{ArticleID: id, Fields: fields}
		}(), expect: code.ErrorValidation},
		{name: "bad status", in: func() *domain.RevisionInput {
			fields := fieldsTitled("B")
			fields.Status = "deleted"
			return &domain.RevisionInput{ArticleID: id, Fields: fields}
		}(), expect: code.ErrorValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.revSvc.Commit(context.Background(), tt.in)
			assert.True(t, errors.Is(err, tt.expect), "got %v", err)
		})
	}

	count, err := f.revisions.Count(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestList_Pagination(t *testing.T) {
	f := newFixture(nil)
	id := seedArticle(t, f, "A")
	for i := 0; i < 24; i++ {
		commitTitle(t, f, id, "T")
	}

	var seen []int64
	for page := 1; page <= 3; page++ {
		out, err := f.revSvc.List(context.Background(), id, &app.Pager{Page: page, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(25), out.Pagination.Total)
		assert.Equal(t, 3, out.Pagination.Pages)
		for _, r := range out.Data {
			seen = append(seen, r.Version)
		}
	}

	require.Len(t, seen, 25)
	for i, v := range seen {
		assert.Equal(t, int64(25-i), v)
	}

	beyond, err := f.revSvc.List(context.Background(), id, &app.Pager{Page: 9, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond.Data)
	assert.Equal(t, int64(25), beyond.Pagination.Total)
}

func TestList_UnknownArticle(t *testing.T) {
	f := newFixture(nil)

	out, err := f.revSvc.List(context.Background(), 404, nil)
	require.NoError(t, err)
	assert.NotNil(t, out.Data)
	assert.Empty(t, out.Data)
	assert.Equal(t, int64(0), out.Pagination.Total)
	assert.Equal(t, 1, out.Pagination.Page)
	assert.Equal(t, 10, out.Pagination.Limit)
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(nil)
	id := seedArticle(t, f, "A")

	_, err := f.revSvc.Get(context.Background(), id, 7)
	assert.True(t, errors.Is(err, code.ErrorRevisionNotFound))

	got, err := f.revSvc.Get(context.Background(), id, 1)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Title)
	assert.Equal(t, "dr.lee", got.EditedBy)
	assert.NotEmpty(t, got.ContentHash)
}

// A→B→C，对比 1 与 3，恢复到 1 后得到第 4 版
func TestCompareAndRestore_History(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	id := seedArticle(t, f, "A")

	_, err := f.artSvc.Update(ctx, &dto.ArticleUpdateRequest{ID: id, RevisionFields: fieldsTitled("B")})
	require.NoError(t, err)
	_, err = f.artSvc.Update(ctx, &dto.ArticleUpdateRequest{ID: id, RevisionFields: fieldsTitled("C")})
	require.NoError(t, err)

	cmp, err := f.revSvc.Compare(ctx, id, 1, 3)
	require.NoError(t, err)
	assert.True(t, cmp.Differences[domain.FieldTitle])
	assert.Equal(t, "A", cmp.Fields[domain.FieldTitle].Old)
	assert.Equal(t, "C", cmp.Fields[domain.FieldTitle].New)
	assert.False(t, cmp.Differences[domain.FieldTags])
	assert.False(t, cmp.Differences[domain.FieldReferenceRanges])
	assert.Contains(t, cmp.Changed, domain.FieldContent)
	assert.NotEmpty(t, cmp.ContentDiff)

	restored, err := f.revSvc.Restore(ctx, id, 1, "dr.kim")
	require.NoError(t, err)
	assert.Equal(t, int64(4), restored.Revision.Version)
	assert.Equal(t, "A", restored.Revision.Title)
	assert.Equal(t, "A", restored.Article.Title)
	assert.Equal(t, int64(1), restored.RestoredFrom)
	assert.Equal(t, int64(1), restored.Revision.RestoredFrom)
	assert.Equal(t, string(domain.ChangeRestore), restored.Revision.ChangeType)
	assert.Equal(t, "Restored from version 1", restored.Revision.ChangeDescription)
	assert.Equal(t, "dr.kim", restored.Revision.EditedBy)

	list, err := f.revSvc.List(ctx, id, &app.Pager{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(4), list.Pagination.Total)
	var versions []int64
	for _, r := range list.Data {
		versions = append(versions, r.Version)
	}
	assert.Equal(t, []int64{4, 3, 2, 1}, versions)

	// 历史修订保持不变
	v1, err := f.revSvc.Get(ctx, id, 1)
	require.NoError(t, err)
	assert.Equal(t, string(domain.ChangeCreate), v1.ChangeType)
}

func TestCompare_Errors(t *testing.T) {
	f := newFixture(nil)
	id := seedArticle(t, f, "A")

	_, err := f.revSvc.Compare(context.Background(), id, 1, 9)
	assert.True(t, errors.Is(err, code.ErrorRevisionNotFound))

	same, err := f.revSvc.Compare(context.Background(), id, 1, 1)
	require.NoError(t, err)
	assert.Empty(t, same.Changed)
	assert.Nil(t, same.ContentDiff)
}

func TestRestore_TargetMissing(t *testing.T) {
	f := newFixture(nil)
	id := seedArticle(t, f, "A")

	_, err := f.revSvc.Restore(context.Background(), id, 5, "")
	assert.True(t, errors.Is(err, code.ErrorRevisionNotFound))

	count, _ := f.revisions.Count(context.Background(), id)
	assert.Equal(t, int64(1), count)
}

func TestRestore_ArticleUpdateFails(t *testing.T) {
	f := newFixture(nil)
	id := seedArticle(t, f, "A")
	commitTitle(t, f, id, "B")
	f.articles.updateErr = errors.New("connection reset")

	_, err := f.revSvc.Restore(context.Background(), id, 1, "")
	assert.True(t, errors.Is(err, code.ErrorArticleUpdateFailed))

	count, _ := f.revisions.Count(context.Background(), id)
	assert.Equal(t, int64(2), count)
}

func TestRestore_HistoryWriteFails(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	id := seedArticle(t, f, "A")
	_, err := f.artSvc.Update(ctx, &dto.ArticleUpdateRequest{ID: id, RevisionFields: fieldsTitled("B")})
	require.NoError(t, err)
	f.revisions.createErr = func(*domain.Revision) error { return errors.New("disk full") }

	_, err = f.revSvc.Restore(ctx, id, 1, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, code.ErrorInconsistentRestoreState))

	var c *code.Code
	require.True(t, errors.As(err, &c))
	pending, ok := c.Data().(*domain.RevisionInput)
	require.True(t, ok)
	assert.Equal(t, int64(1), pending.RestoredFrom)
	assert.Equal(t, domain.ChangeRestore, pending.ChangeType)
	assert.Equal(t, "admin", pending.EditedBy)
	assert.Equal(t, "A", pending.Fields.Title)

	// 文章已被覆盖，历史未记录
	article, err := f.articles.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "A", article.Fields.Title)

	audit, err := f.revSvc.Audit(ctx, id)
	require.NoError(t, err)
	assert.False(t, audit.InSync)
	assert.Contains(t, audit.DriftFields, domain.FieldTitle)

	// 重试历史写入后恢复一致
	f.revisions.createErr = nil
	_, err = f.revSvc.Commit(ctx, pending)
	require.NoError(t, err)
	audit, err = f.revSvc.Audit(ctx, id)
	require.NoError(t, err)
	assert.True(t, audit.InSync)
	assert.Equal(t, int64(3), audit.LatestVersion)
}

func TestAudit_Gap(t *testing.T) {
	f := newFixture(nil)
	id := seedArticle(t, f, "A")
	article, err := f.articles.GetByID(context.Background(), id)
	require.NoError(t, err)
	f.revisions.put(domain.Revision{ArticleID: id, Version: 4, Fields: article.Fields})

	out, err := f.revSvc.Audit(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, out.Contiguous)
	assert.Equal(t, []int64{2, 3}, out.MissingVersions)
	assert.Equal(t, int64(2), out.Count)
	assert.Equal(t, int64(4), out.LatestVersion)
	assert.True(t, out.InSync)
}

func TestAudit_UnknownArticle(t *testing.T) {
	f := newFixture(nil)
	_, err := f.revSvc.Audit(context.Background(), 77)
	assert.True(t, errors.Is(err, code.ErrorArticleNotFound))
}

func TestMissingVersions(t *testing.T) {
	tests := []struct {
		name     string
		versions []int64
		want     []int64
	}{
		{name: "empty", versions: nil, want: []int64{}},
		{name: "contiguous", versions: []int64{1, 2, 3}, want: []int64{}},
		{name: "leading gap", versions: []int64{3}, want: []int64{1, 2}},
		{name: "inner gaps", versions: []int64{1, 4, 6}, want: []int64{2, 3, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, missingVersions(tt.versions))
		})
	}
}

func TestCommit_CancelledDuringRetry(t *testing.T) {
	f := newFixture(nil)
	id := seedArticle(t, f, "A")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.revisions.creates = 0
	f.revisions.createErr = func(*domain.Revision) error {
		cancel()
		return domain.ErrDuplicateVersion
	}

	_, err := f.revSvc.Commit(ctx, &domain.RevisionInput{ArticleID: id, Fields: fieldsTitled("B")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, code.ErrorTimeout))
	assert.Equal(t, 1, f.revisions.creates)
}

func TestDocumentStore_SharedReadIgnoresCallerCancel(t *testing.T) {
	f := newFixture(nil)
	id := seedArticle(t, f, "A")

	entered := make(chan context.Context, 1)
	release := make(chan struct{})
	f.articles.getHook = func(ctx context.Context) {
		select {
		case entered <- ctx:
		default:
		}
		<-release
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := f.docs.GetCurrent(ctx, id)
		errCh <- err
	}()

	shared := <-entered
	cancel()
	err := <-errCh
	assert.True(t, errors.Is(err, code.ErrorTimeout))
	assert.NoError(t, shared.Err())

	close(release)
	article, err := f.docs.GetCurrent(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "A", article.Fields.Title)
}
