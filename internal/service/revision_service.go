package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medref/revision-service/internal/domain"
	"github.com/medref/revision-service/internal/dto"
	"github.com/medref/revision-service/pkg/app"
	"github.com/medref/revision-service/pkg/code"
	"github.com/medref/revision-service/pkg/diff"
	"github.com/medref/revision-service/pkg/logger"
	"github.com/medref/revision-service/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// RevisionService defines the revision engine: writer, history reader, compare and restore
// RevisionService 定义修订引擎：写入、历史读取、对比与恢复
type RevisionService interface {
	// Commit allocates the next version and persists one snapshot, retrying on a lost race
	// Commit 分配下一个版本号并写入快照，版本号被抢占时重试
	Commit(ctx context.Context, in *domain.RevisionInput) (*domain.Revision, error)

	// Create commits a snapshot of the given fields for an existing article
	// Create 为已存在的文章提交一条快照
	Create(ctx context.Context, params *dto.RevisionCreateRequest) (*dto.RevisionDTO, error)

	// List returns revisions by version descending, empty for an unknown article
	// List 按版本号降序分页返回修订，未知文章返回空列表
	List(ctx context.Context, articleID int64, pager *app.Pager) (*dto.RevisionListDTO, error)

	// Get 获取指定版本的修订
	Get(ctx context.Context, articleID, version int64) (*dto.RevisionDTO, error)

	// Compare 对比同一文章的两个修订
	Compare(ctx context.Context, articleID, v1, v2 int64) (*dto.RevisionCompareDTO, error)

	// Restore overwrites the article with a past revision and records that as a new revision
	// Restore 用历史修订覆盖文章，并将此次恢复记录为新修订
	Restore(ctx context.Context, articleID, version int64, editedBy string) (*dto.RevisionRestoreDTO, error)

	// Audit checks that versions are exactly 1..N and that the article matches its latest revision
	// Audit 检查版本号是否恰为 1..N，以及文章是否与最新修订一致
	Audit(ctx context.Context, articleID int64) (*dto.RevisionAuditDTO, error)
}

type revisionService struct {
	revisionRepo domain.RevisionRepository // Revision repository // 修订仓储
	allocator    VersionAllocator          // Version allocator // 版本号分配器
	documents    DocumentStore             // Live article store // 线上文章存储
	logger       *zap.Logger               // Logger // 日志对象
	config       *ServiceConfig            // Service configuration // 服务配置
	now          func() time.Time
}

// NewRevisionService creates RevisionService instance
// NewRevisionService 创建 RevisionService 实例
func NewRevisionService(revisionRepo domain.RevisionRepository, allocator VersionAllocator, documents DocumentStore, logger *zap.Logger, config *ServiceConfig) RevisionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if allocator == nil {
		allocator = NewVersionAllocator(revisionRepo)
	}
	return &revisionService{
		revisionRepo: revisionRepo,
		allocator:    allocator,
		documents:    documents,
		logger:       logger,
		config:       config.normalize(),
		now:          time.Now,
	}
}

func (s *revisionService) Commit(ctx context.Context, in *domain.RevisionInput) (*domain.Revision, error) {
	if in == nil || in.ArticleID <= 0 {
		return nil, code.ErrorInvalidParams.WithDetails("articleId")
	}
	if err := in.Fields.Validate(); err != nil {
		return nil, validationError(err)
	}

	editedBy := in.EditedBy
	if editedBy == "" {
		editedBy = s.config.Revision.DefaultEditor
	}
	changeType := in.ChangeType
	if changeType == "" {
		changeType = domain.ChangeManual
	}

	maxAttempts := s.config.Revision.MaxCommitAttempts
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		version, err := s.allocator.Next(ctx, in.ArticleID)
		if err != nil {
			return nil, code.ErrorDBQuery.WithDetails(err.Error())
		}

		created, err := s.revisionRepo.Create(ctx, &domain.Revision{
			ArticleID:         in.ArticleID,
			Version:           version,
			Fields:            in.Fields,
			EditedBy:          editedBy,
			ChangeDescription: in.ChangeDescription,
			ChangeType:        changeType,
			RestoredFrom:      in.RestoredFrom,
			CreatedAt:         s.now(),
		})
		if err == nil {
			metrics.RevisionsCreated.WithLabelValues(string(changeType)).Inc()
			s.logger.Debug("revision committed",
				zap.Int64(logger.FieldArticleID, in.ArticleID),
				zap.Int64(logger.FieldVersion, created.Version),
				zap.String(logger.FieldEditor, editedBy),
				zap.Int(logger.FieldAttempt, attempt))
			return created, nil
		}
		if !errors.Is(err, domain.ErrDuplicateVersion) {
			return nil, code.ErrorDBQuery.WithDetails(err.Error())
		}

		metrics.CommitRetries.Inc()
		s.logger.Warn("revision version taken, retrying",
			zap.Int64(logger.FieldArticleID, in.ArticleID),
			zap.Int64(logger.FieldVersion, version),
			zap.Int(logger.FieldAttempt, attempt))

		if err := ctx.Err(); err != nil {
			return nil, code.ErrorTimeout.WithDetails(err.Error())
		}
	}

	metrics.VersionConflicts.Inc()
	s.logger.Error("revision commit exhausted retries",
		zap.Int64(logger.FieldArticleID, in.ArticleID),
		zap.Int(logger.FieldAttempt, maxAttempts))
	return nil, code.ErrorVersionConflict.WithDetails(fmt.Sprintf("article %d: %d attempts", in.ArticleID, maxAttempts))
}

func (s *revisionService) Create(ctx context.Context, params *dto.RevisionCreateRequest) (*dto.RevisionDTO, error) {
	if _, err := s.documents.GetCurrent(ctx, params.ArticleID); err != nil {
		return nil, err
	}
	rev, err := s.Commit(ctx, &domain.RevisionInput{
		ArticleID:         params.ArticleID,
		Fields:            params.RevisionFields,
		EditedBy:          params.EditedBy,
		ChangeDescription: params.ChangeDescription,
		ChangeType:        domain.ChangeManual,
	})
	if err != nil {
		return nil, err
	}
	return revisionToDTO(rev), nil
}

func (s *revisionService) List(ctx context.Context, articleID int64, pager *app.Pager) (*dto.RevisionListDTO, error) {
	if pager == nil {
		pager = &app.Pager{}
	}
	pager.Normalize(s.config.pagination())

	total, err := s.revisionRepo.Count(ctx, articleID)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	pager.TotalRows = int(total)

	data := make([]*dto.RevisionDTO, 0, pager.PageSize)
	if total > 0 {
		revisions, err := s.revisionRepo.List(ctx, articleID, pager.Page, pager.PageSize)
		if err != nil {
			return nil, code.ErrorDBQuery.WithDetails(err.Error())
		}
		for _, r := range revisions {
			data = append(data, revisionToDTO(r))
		}
	}

	return &dto.RevisionListDTO{
		Data: data,
		Pagination: dto.PaginationDTO{
			Page:  pager.Page,
			Limit: pager.PageSize,
			Total: total,
			Pages: app.TotalPages(total, pager.PageSize),
		},
	}, nil
}

// getRevision 获取修订并转换错误码
func (s *revisionService) getRevision(ctx context.Context, articleID, version int64) (*domain.Revision, error) {
	rev, err := s.revisionRepo.GetByVersion(ctx, articleID, version)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorRevisionNotFound.WithDetails(fmt.Sprintf("article %d version %d", articleID, version))
		}
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	return rev, nil
}

func (s *revisionService) Get(ctx context.Context, articleID, version int64) (*dto.RevisionDTO, error) {
	rev, err := s.getRevision(ctx, articleID, version)
	if err != nil {
		return nil, err
	}
	return revisionToDTO(rev), nil
}

func (s *revisionService) Compare(ctx context.Context, articleID, v1, v2 int64) (*dto.RevisionCompareDTO, error) {
	var a, b *domain.Revision

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		a, err = s.getRevision(gctx, articleID, v1)
		return err
	})
	g.Go(func() (err error) {
		b, err = s.getRevision(gctx, articleID, v2)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d, err := domain.DiffRevisions(a, b)
	if err != nil {
		if errors.Is(err, domain.ErrArticleMismatch) {
			return nil, code.ErrorDiffArticleMismatch
		}
		return nil, code.ErrorServerInternal.WithDetails(err.Error())
	}

	out := &dto.RevisionCompareDTO{
		Version1:    revisionToDTO(a),
		Version2:    revisionToDTO(b),
		Differences: d.Differences(),
		Fields:      d.Fields,
		Changed:     d.ChangedFields(),
	}
	if d.Fields[domain.FieldContent].Changed {
		out.ContentDiff = diff.TextDiff(a.Fields.Content, b.Fields.Content)
		out.ContentStats = diff.Summarize(out.ContentDiff)
	}
	return out, nil
}

func (s *revisionService) Restore(ctx context.Context, articleID, version int64, editedBy string) (*dto.RevisionRestoreDTO, error) {
	target, err := s.getRevision(ctx, articleID, version)
	if err != nil {
		return nil, err
	}

	fields, err := cloneFields(target.Fields)
	if err != nil {
		return nil, code.ErrorServerInternal.WithDetails(err.Error())
	}

	// 第一步：覆盖线上文章；失败时不写修订
	article, err := s.documents.SetCurrent(ctx, articleID, fields)
	if err != nil {
		s.logger.Warn("restore: article update failed",
			zap.Int64(logger.FieldArticleID, articleID),
			zap.Int64(logger.FieldSourceVersion, version),
			zap.Error(err))
		return nil, err
	}

	// 第二步：记录恢复；失败时文章已变更而历史未记录
	pending := &domain.RevisionInput{
		ArticleID:         articleID,
		Fields:            article.Fields,
		EditedBy:          editedBy,
		ChangeDescription: fmt.Sprintf(s.config.Revision.RestoreDescription, version),
		ChangeType:        domain.ChangeRestore,
		RestoredFrom:      version,
	}
	if pending.EditedBy == "" {
		pending.EditedBy = s.config.Revision.DefaultEditor
	}

	rev, err := s.Commit(ctx, pending)
	if err != nil {
		metrics.RestoreInconsistencies.Inc()
		s.logger.Error("restore: article updated but revision not recorded",
			zap.Int64(logger.FieldArticleID, articleID),
			zap.Int64(logger.FieldSourceVersion, version),
			zap.String(logger.FieldEditor, pending.EditedBy),
			zap.Error(err))
		return nil, code.ErrorInconsistentRestoreState.WithData(pending).WithDetails(err.Error())
	}

	s.logger.Info("article restored",
		zap.Int64(logger.FieldArticleID, articleID),
		zap.Int64(logger.FieldSourceVersion, version),
		zap.Int64(logger.FieldVersion, rev.Version))

	return &dto.RevisionRestoreDTO{
		Article:      articleToDTO(article),
		Revision:     revisionToDTO(rev),
		RestoredFrom: version,
	}, nil
}

func (s *revisionService) Audit(ctx context.Context, articleID int64) (*dto.RevisionAuditDTO, error) {
	article, err := s.documents.GetCurrent(ctx, articleID)
	if err != nil {
		return nil, err
	}

	versions, err := s.revisionRepo.ListVersions(ctx, articleID)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	out := &dto.RevisionAuditDTO{
		ArticleID:       articleID,
		Count:           int64(len(versions)),
		MissingVersions: missingVersions(versions),
		DriftFields:     []string{},
	}
	if len(versions) > 0 {
		out.LatestVersion = versions[len(versions)-1]
	}
	out.Contiguous = len(out.MissingVersions) == 0 && out.Count == out.LatestVersion

	if out.Count > 0 {
		latest, err := s.revisionRepo.GetLatest(ctx, articleID)
		if err != nil {
			return nil, code.ErrorDBQuery.WithDetails(err.Error())
		}
		fields := domain.DiffFields(latest.Fields, article.Fields)
		for _, name := range domain.FieldNames {
			if fields[name].Changed {
				out.DriftFields = append(out.DriftFields, name)
			}
		}
		out.InSync = len(out.DriftFields) == 0
	}

	if !out.Contiguous {
		metrics.AuditFindings.WithLabelValues("gap").Inc()
	}
	if !out.InSync {
		metrics.AuditFindings.WithLabelValues("drift").Inc()
	}
	return out, nil
}

// missingVersions 返回 1..max 中缺失的版本号，versions 需升序
func missingVersions(versions []int64) []int64 {
	missing := []int64{}
	next := int64(1)
	for _, v := range versions {
		for ; next < v; next++ {
			missing = append(missing, next)
		}
		if v >= next {
			next = v + 1
		}
	}
	return missing
}
