package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	internalApp "github.com/medref/revision-service/internal/app"
	"github.com/medref/revision-service/internal/dao"
	"github.com/medref/revision-service/internal/routers"
	"github.com/medref/revision-service/internal/task"
	"github.com/medref/revision-service/internal/upgrade"
	"github.com/medref/revision-service/pkg/logger"
	"github.com/medref/revision-service/pkg/safe_close"
	"github.com/medref/revision-service/pkg/validator"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// httpShutdownTimeout HTTP 服务停止时等待在途请求的上限
const httpShutdownTimeout = 5 * time.Second

const banner = `
    ____            _      _                _____                 _
   / __ \___ _   __(_)____(_)___  ____     / ___/___  ______   __(_)_______
  / /_/ / _ \ | / / / ___/ / __ \/ __ \    \__ \/ _ \/ ___/ | / / / ___/ _ \
 / _, _/  __/ |/ / (__  ) / /_/ / / / /   ___/ /  __/ /   | |/ / / /__/  __/
/_/ |_|\___/|___/_/____/_/\____/_/ /_/   /____/\___/_/    |___/_/\___/\___/ `

// Server 一次 run 的运行实例，配置热重载时整体替换
type Server struct {
	logger *zap.Logger
	config *internalApp.AppConfig
	sc     *safe_close.SafeClose
	app    *internalApp.App
}

// lastVersionFile 上次运行版本的记录文件，与配置文件同目录
func lastVersionFile(configRealpath string) string {
	return filepath.Join(filepath.Dir(configRealpath), "lastVersion")
}

// listenAddr 将 -p 参数转换为监听地址
func listenAddr(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

// newLogger 按配置创建日志器，日志目录不存在时先创建
func newLogger(cfg *internalApp.AppConfig) (*zap.Logger, error) {
	if cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o754); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	return logger.NewLogger(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		Production: cfg.Log.Production,
	})
}

// openDatabase 打开数据库连接，sqlite 会先创建数据文件所在目录
func openDatabase(cfg *internalApp.AppConfig, lg *zap.Logger) (*gorm.DB, error) {
	dbCfg := cfg.GetDatabaseConfig()
	if dbCfg.Type == "sqlite" && dbCfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(dbCfg.Path), 0o754); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	return dao.NewDBEngineWithConfig(dbCfg, lg)
}

// newHTTPServer 使用 server 段的读写超时构造 http.Server
func newHTTPServer(cfg *internalApp.AppConfig, addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        h,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
}

// applyRunFlags 命令行参数覆盖配置文件，返回最终运行模式
func applyRunFlags(cfg *internalApp.AppConfig, runEnv *runFlags) string {
	if runEnv.port != "" {
		cfg.Server.HttpPort = listenAddr(runEnv.port)
	}
	if runEnv.runMode != "" {
		cfg.Server.RunMode = runEnv.runMode
	}
	if cfg.Server.RunMode == "" {
		cfg.Server.RunMode = gin.ReleaseMode
	}
	return cfg.Server.RunMode
}

// NewServer 加载配置、迁移数据库、组装 App 并启动 HTTP 服务与定时任务
func NewServer(runEnv *runFlags) (*Server, error) {
	cfg, configRealpath, err := internalApp.LoadConfig(runEnv.config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	runMode := applyRunFlags(cfg, runEnv)
	gin.SetMode(runMode)

	lg, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("initLogger: %w", err)
	}

	db, err := openDatabase(cfg, lg)
	if err != nil {
		return nil, fmt.Errorf("initDatabase: %w", err)
	}

	// 迁移必须先于任何服务访问数据表
	if err := upgrade.Execute(db, lg, internalApp.Version, lastVersionFile(configRealpath)); err != nil {
		return nil, fmt.Errorf("upgrade.Execute: %w", err)
	}

	appContainer, err := internalApp.NewApp(cfg, lg, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create app container: %w", err)
	}

	uni, err := validator.Setup()
	if err != nil {
		return nil, fmt.Errorf("initValidator: %w", err)
	}

	s := &Server{
		logger: lg,
		config: cfg,
		sc:     safe_close.NewSafeClose(),
		app:    appContainer,
	}
	s.startScheduler()

	lg.Warn(fmt.Sprintf("%s\n\n%s v%s\nGit: %s\nBuildTime: %s\n", banner, internalApp.Name, internalApp.Version, internalApp.GitTag, internalApp.BuildTime))
	lg.Warn("config loaded", zap.String("path", configRealpath), zap.String("mode", runMode))

	if addr := cfg.Server.HttpPort; addr != "" {
		lg.Warn("api_router", zap.String("listen", addr))
		s.attachHTTPServer("api service", newHTTPServer(cfg, addr, routers.NewRouter(appContainer, uni)))
	}
	if addr := cfg.Server.PrivateHttpListen; addr != "" {
		lg.Info("private_router", zap.String("listen", addr))
		s.attachHTTPServer("private api service", newHTTPServer(cfg, addr, routers.NewPrivateRouterWithLogger(runMode, lg)))
	}

	// App 最后关闭：HTTP 与任务先停止提交新工作
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		<-closeSignal
		ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := s.app.Shutdown(ctx); err != nil {
			s.logger.Error("failed to shutdown app container", zap.Error(err))
			return
		}
		s.logger.Info("App container shutdown gracefully")
	})

	return s, nil
}

// attachHTTPServer 启动 HTTP 服务并挂载到 safe_close，收到关闭信号时优雅停止
func (s *Server) attachHTTPServer(name string, srv *http.Server) {
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		errChan := make(chan error, 1)
		go func() {
			errChan <- srv.ListenAndServe()
		}()
		select {
		case err := <-errChan:
			s.logger.Error(name+" err", zap.Error(err))
			s.sc.SendCloseSignal(err)
		case <-closeSignal:
			ctx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				s.logger.Error(name+" shutdown error", zap.Error(err))
			}
		}
	})
}

// startScheduler 注册并启动所有已启用的后台任务
func (s *Server) startScheduler() {
	manager := task.NewManager(s.logger, s.sc, s.app)
	if err := manager.RegisterTasks(); err != nil {
		s.logger.Error("failed to register tasks", zap.Error(err))
		return
	}
	manager.Start()
}
