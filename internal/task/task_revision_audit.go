package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/medref/revision-service/internal/app"
	"github.com/medref/revision-service/internal/dto"
	"github.com/medref/revision-service/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// AuditReport 单次巡检汇总
type AuditReport struct {
	Articles int     // 已检查文章数
	Gaps     []int64 // 版本号不连续的文章
	Drifts   []int64 // 与最新修订不一致的文章
	Failed   int     // 检查失败的文章数
}

// RevisionAuditTask walks every article and reports version gaps and drift
// RevisionAuditTask 遍历全部文章，报告版本缺口与内容漂移
type RevisionAuditTask struct {
	app       *app.App
	schedule  cron.Schedule
	batchSize int
	lastRun   *AuditReport
}

// NewRevisionAuditTask 创建历史巡检任务，audit-cron 为 off 或空时返回 nil
func NewRevisionAuditTask(appContainer *app.App) (*RevisionAuditTask, error) {
	cfg := appContainer.Config().Revision
	expr := strings.TrimSpace(cfg.AuditCron)
	if expr == "" || strings.EqualFold(expr, "off") {
		return nil, nil
	}

	schedule, err := ParseSchedule(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid revision audit-cron %q: %w", expr, err)
	}

	batch := cfg.AuditBatchSize
	if batch <= 0 {
		batch = 200
	}

	return &RevisionAuditTask{
		app:       appContainer,
		schedule:  schedule,
		batchSize: batch,
	}, nil
}

func (t *RevisionAuditTask) Name() string {
	return "RevisionAudit"
}

func (t *RevisionAuditTask) LoopInterval() time.Duration {
	return 0
}

func (t *RevisionAuditTask) Schedule() cron.Schedule {
	return t.schedule
}

func (t *RevisionAuditTask) IsStartupRun() bool {
	return false
}

// Run 执行一次完整巡检
func (t *RevisionAuditTask) Run(ctx context.Context) error {
	report, err := t.Audit(ctx)
	if err != nil {
		return err
	}
	t.lastRun = report

	t.app.Logger().Info("revision audit finished",
		zap.String(logger.FieldTask, t.Name()),
		zap.Int("articles", report.Articles),
		zap.Int("gaps", len(report.Gaps)),
		zap.Int("drifts", len(report.Drifts)),
		zap.Int("failed", report.Failed))
	return nil
}

// Audit 分批读取文章 ID，在 Worker Pool 中并发检查
func (t *RevisionAuditTask) Audit(ctx context.Context) (*AuditReport, error) {
	lg := t.app.Logger()
	report := &AuditReport{Gaps: []int64{}, Drifts: []int64{}}

	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if t.app.IsShuttingDown() {
			lg.Info("revision audit interrupted by shutdown", zap.Int("articles", report.Articles))
			return report, nil
		}

		ids, err := t.app.ArticleRepo.ListIDs(ctx, afterID, t.batchSize)
		if err != nil {
			return report, fmt.Errorf("list article ids after %d: %w", afterID, err)
		}
		if len(ids) == 0 {
			return report, nil
		}

		results := make([]*dto.RevisionAuditDTO, len(ids))
		fns := make([]func(context.Context) error, len(ids))
		for i, id := range ids {
			i, id := i, id
			fns[i] = func(ctx context.Context) error {
				res, err := t.app.RevisionService.Audit(ctx, id)
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			}
		}

		errs := t.app.WorkerPool().RunAll(ctx, fns)
		for i, id := range ids {
			report.Articles++
			if errs[i] != nil {
				report.Failed++
				lg.Error("revision audit failed", zap.Int64(logger.FieldArticleID, id), zap.Error(errs[i]))
				if errors.Is(errs[i], context.Canceled) {
					return report, errs[i]
				}
				continue
			}

			res := results[i]
			if !res.Contiguous {
				report.Gaps = append(report.Gaps, id)
				lg.Warn("revision history has gaps",
					zap.Int64(logger.FieldArticleID, id),
					zap.Int64("latestVersion", res.LatestVersion),
					zap.Int64s("missingVersions", res.MissingVersions))
			}
			if res.Count > 0 && !res.InSync {
				report.Drifts = append(report.Drifts, id)
				lg.Warn("article drifted from latest revision",
					zap.Int64(logger.FieldArticleID, id),
					zap.Int64("latestVersion", res.LatestVersion),
					zap.Strings("fields", res.DriftFields))
			}
		}

		afterID = ids[len(ids)-1]
		if len(ids) < t.batchSize {
			return report, nil
		}
	}
}

// LastReport 最近一次巡检结果
func (t *RevisionAuditTask) LastReport() *AuditReport {
	return t.lastRun
}

func init() {
	RegisterWithApp(func(appContainer *app.App) (Task, error) {
		t, err := NewRevisionAuditTask(appContainer)
		if err != nil || t == nil {
			return nil, err
		}
		return t, nil
	})
}
