package task

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/medref/revision-service/internal/app"
	"github.com/medref/revision-service/internal/dao"
	"github.com/medref/revision-service/internal/domain"
	"github.com/medref/revision-service/internal/dto"
	"github.com/medref/revision-service/internal/model"
	"github.com/medref/revision-service/pkg/safe_close"

	"github.com/creasty/defaults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingTask struct {
	runs     atomic.Int32
	interval time.Duration
	startup  bool
	panics   bool
}

func (c *countingTask) Name() string                { return "counting" }
func (c *countingTask) LoopInterval() time.Duration { return c.interval }
func (c *countingTask) IsStartupRun() bool          { return c.startup }
func (c *countingTask) Run(ctx context.Context) error {
	n := c.runs.Add(1)
	if c.panics && n == 1 {
		panic("boom")
	}
	return errors.New("ignored")
}

func TestScheduler_LoopsUntilClosed(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(zap.NewNop(), sc)
	task := &countingTask{interval: 5 * time.Millisecond, startup: true, panics: true}
	s.AddTask(task)
	s.Start()

	assert.Eventually(t, func() bool { return task.runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	sc.SendCloseSignal(nil)
	require.NoError(t, sc.WaitClosed())
}

func TestParseSchedule(t *testing.T) {
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		expr string
		next time.Time
	}{
		{expr: "@every 1h", next: base.Add(time.Hour)},
		{expr: "30 2 * * *", next: time.Date(2026, 1, 2, 2, 30, 0, 0, time.UTC)},
		{expr: "@daily", next: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			s, err := ParseSchedule(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.next, s.Next(base))
		})
	}

	_, err := ParseSchedule("every now and then")
	assert.Error(t, err)
}

func newTestApp(t *testing.T, mutate func(cfg *app.AppConfig)) *app.App {
	t.Helper()
	cfg := &app.AppConfig{}
	require.NoError(t, defaults.Set(cfg))
	cfg.Database.Path = filepath.Join(t.TempDir(), "task.db")
	if mutate != nil {
		mutate(cfg)
	}

	db, err := dao.NewDBEngineWithConfig(cfg.GetDatabaseConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db, ""))

	a, err := app.NewApp(cfg, zap.NewNop(), db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func TestNewRevisionAuditTask_Config(t *testing.T) {
	off := newTestApp(t, func(cfg *app.AppConfig) { cfg.Revision.AuditCron = "off" })
	task, err := NewRevisionAuditTask(off)
	require.NoError(t, err)
	assert.Nil(t, task)

	bad := newTestApp(t, func(cfg *app.AppConfig) { cfg.Revision.AuditCron = "sometimes" })
	_, err = NewRevisionAuditTask(bad)
	assert.Error(t, err)

	ok := newTestApp(t, nil)
	task, err = NewRevisionAuditTask(ok)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.NotNil(t, task.Schedule())
	assert.Equal(t, time.Duration(0), task.LoopInterval())
}

func articleFields(slug string) domain.RevisionFields {
	return domain.RevisionFields{
		Title:   "Serum " + slug,
		Slug:    slug,
		Content: "Reference ranges for " + slug,
		Tags:    []string{"chemistry"},
		ReferenceRanges: []domain.ReferenceRange{
			{Parameter: slug, Range: "1-10", Unit: "mmol/L", AgeGroup: domain.AgeGroupAdult},
		},
		Status: domain.StatusPublished,
	}
}

func TestRevisionAuditTask_ReportsGapsAndDrift(t *testing.T) {
	// 小批量以覆盖分页
	a := newTestApp(t, func(cfg *app.AppConfig) { cfg.Revision.AuditBatchSize = 2 })
	ctx := context.Background()

	ids := make([]int64, 0, 5)
	for _, slug := range []string{"sodium", "potassium", "chloride", "calcium", "urea"} {
		out, err := a.ArticleService.Create(ctx, &dto.ArticleCreateRequest{RevisionFields: articleFields(slug)})
		require.NoError(t, err)
		ids = append(ids, out.Article.ID)
	}

	// potassium: v1..v3, then v2 removed
	for i := 0; i < 2; i++ {
		fields := articleFields("potassium")
		fields.Content += " rev"
		_, err := a.ArticleService.Update(ctx, &dto.ArticleUpdateRequest{ID: ids[1], RevisionFields: fields})
		require.NoError(t, err)
	}
	require.NoError(t, a.DB.Exec("DELETE FROM article_revision WHERE article_id = ? AND version = ?", ids[1], 2).Error)

	// calcium: live row edited without a revision
	drifted := articleFields("calcium")
	drifted.Title = "Ionised calcium"
	_, err := a.ArticleRepo.UpdateFields(ctx, ids[3], drifted)
	require.NoError(t, err)

	task, err := NewRevisionAuditTask(a)
	require.NoError(t, err)
	require.NotNil(t, task)

	require.NoError(t, task.Run(ctx))
	report := task.LastReport()
	require.NotNil(t, report)

	assert.Equal(t, 5, report.Articles)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, []int64{ids[1]}, report.Gaps)
	assert.Equal(t, []int64{ids[3]}, report.Drifts)
}

func TestManager_RegistersAuditTask(t *testing.T) {
	a := newTestApp(t, nil)
	sc := safe_close.NewSafeClose()
	m := NewManager(zap.NewNop(), sc, a)
	require.NoError(t, m.RegisterTasks())
	require.Len(t, m.scheduler.tasks, 1)
	assert.Equal(t, "RevisionAudit", m.scheduler.tasks[0].Name())

	m.Start()
	sc.SendCloseSignal(nil)
	require.NoError(t, sc.WaitClosed())
}
