// Package app 应用容器与配置
package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/medref/revision-service/internal/dao"
	"github.com/medref/revision-service/internal/domain"
	"github.com/medref/revision-service/internal/service"
	pkgapp "github.com/medref/revision-service/pkg/app"
	"github.com/medref/revision-service/pkg/workerpool"
	"github.com/medref/revision-service/pkg/writequeue"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 持有数据库、并发组件与各层服务，一个进程内只创建一次
type App struct {
	config *AppConfig
	logger *zap.Logger
	DB     *gorm.DB

	workerPool *workerpool.Pool
	writeQueue *writequeue.Manager

	ArticleRepo  domain.ArticleRepository
	RevisionRepo domain.RevisionRepository

	RevisionService service.RevisionService
	ArticleService  service.ArticleService

	shutdownCh chan struct{}
	stopping   atomic.Bool
}

// NewApp 依次组装并发组件、Repository 与 Service
// 文章行写入经 writeQueue 按文章ID串行，修订审计经 workerPool 并发
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB) (*App, error) {
	switch {
	case cfg == nil:
		return nil, fmt.Errorf("app: nil config")
	case logger == nil:
		return nil, fmt.Errorf("app: nil logger")
	case db == nil:
		return nil, fmt.Errorf("app: nil database")
	}

	poolCfg, queueCfg, dbCfg, svcCfg := cfg.GetWorkerPoolConfig(), cfg.GetWriteQueueConfig(), cfg.GetDatabaseConfig(), cfg.GetServiceConfig()

	a := &App{config: cfg, logger: logger, DB: db, shutdownCh: make(chan struct{})}
	a.workerPool = workerpool.New(&poolCfg, logger)
	a.writeQueue = writequeue.New(&queueCfg, logger)

	store := dao.New(db, context.Background(),
		dao.WithConfig(&dbCfg),
		dao.WithLogger(logger),
		dao.WithWriteQueueManager(a.writeQueue),
	)
	a.ArticleRepo = dao.NewArticleRepository(store)
	a.RevisionRepo = dao.NewRevisionRepository(store)

	documents := service.NewDocumentStore(a.ArticleRepo)
	a.RevisionService = service.NewRevisionService(a.RevisionRepo, service.NewVersionAllocator(a.RevisionRepo), documents, logger, svcCfg)
	a.ArticleService = service.NewArticleService(a.ArticleRepo, documents, a.RevisionService, logger)

	logger.Info("app container ready",
		zap.String("database", dbCfg.Type),
		zap.Int("workers", poolCfg.MaxWorkers),
		zap.Int("queueCapacity", queueCfg.QueueCapacity),
		zap.Int("maxCommitAttempts", svcCfg.Revision.MaxCommitAttempts))
	return a, nil
}

// Close 关闭底层 sql.DB
func (a *App) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return fmt.Errorf("app: sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("app: close database: %w", err)
	}
	a.logger.Info("database closed")
	return nil
}

func (a *App) Config() *AppConfig { return a.config }

func (a *App) Logger() *zap.Logger { return a.logger }

// WorkerPool 后台批量任务使用的协程池
func (a *App) WorkerPool() *workerpool.Pool { return a.workerPool }

// Version 构建时注入的版本信息
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{Version: Version, GitTag: GitTag, BuildTime: BuildTime}
}

// Ping 检查数据库连通性，供健康检查使用
func (a *App) Ping(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// shutdownStage 一个关闭阶段
type shutdownStage struct {
	name string
	stop func(context.Context) error
}

// Shutdown 按阶段关闭：worker pool, write queue, database
// 每个阶段失败都会记录并继续下一阶段；重复调用直接返回
func (a *App) Shutdown(ctx context.Context) error {
	if !a.stopping.CompareAndSwap(false, true) {
		return nil
	}
	close(a.shutdownCh)
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
	}

	stages := []shutdownStage{
		{name: "worker pool", stop: a.workerPool.Shutdown},
		{name: "write queue", stop: a.writeQueue.Shutdown},
		{name: "database", stop: func(context.Context) error { return a.Close() }},
	}

	a.logger.Info("App container shutting down", zap.Int("stages", len(stages)))

	var failed []string
	var first error
	for _, st := range stages {
		err := st.stop(ctx)
		if err == nil {
			continue
		}
		a.logger.Warn("shutdown stage failed", zap.String("stage", st.name), zap.Error(err))
		failed = append(failed, st.name)
		if first == nil {
			first = fmt.Errorf("%s: %w", st.name, err)
		}
	}

	if first != nil {
		return fmt.Errorf("shutdown incomplete (%d failed stages %v): %w", len(failed), failed, first)
	}
	a.logger.Info("App container stopped")
	return nil
}

// IsShuttingDown 是否已进入关闭流程
func (a *App) IsShuttingDown() bool {
	select {
	case <-a.shutdownCh:
		return true
	default:
		return false
	}
}
