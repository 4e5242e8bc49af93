package cmd

import (
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/radovskyb/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// configSearchPath 未指定 -c 时依次尝试的配置文件
var configSearchPath = []string{"config/config-dev.yaml", "config.yaml", "config/config.yaml"}

// configPollInterval 配置文件轮询周期
const configPollInterval = 5 * time.Second

type runFlags struct {
	dir     string // 工作目录
	port    string // 覆盖 server.http-port
	runMode string // 覆盖 server.run-mode
	config  string // 配置文件路径
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// resolveConfigPath 按 configSearchPath 查找配置文件，均不存在时写出内置默认配置
func resolveConfigPath() (string, error) {
	for _, candidate := range configSearchPath {
		if fileExists(candidate) {
			return candidate, nil
		}
	}

	path := configSearchPath[len(configSearchPath)-1]
	bootstrapLogger.Warn("config file not found, writing default", zap.String("path", path))
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(configDefault), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// serverHolder 当前运行实例，配置重载时替换
type serverHolder struct {
	mu  sync.Mutex
	srv *Server
}

func (h *serverHolder) get() *Server {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.srv
}

func (h *serverHolder) set(s *Server) {
	h.mu.Lock()
	h.srv = s
	h.mu.Unlock()
}

// stop 发送关闭信号并等待所有关闭处理器（含 App 容器）完成
func (s *Server) stop() error {
	s.sc.SendCloseSignal(nil)
	return s.sc.WaitClosed()
}

// watchConfig 配置文件被写入时关闭旧实例并以新配置重建
// 重建失败时保留已关闭状态，等待下一次写入
func watchConfig(runEnv *runFlags, holder *serverHolder) {
	w := watcher.New()
	// 每个轮询周期最多处理 1 个事件
	w.SetMaxEvents(1)
	w.FilterOps(watcher.Write)

	go func() {
		for {
			select {
			case event := <-w.Event:
				old := holder.get()
				old.logger.Info("config changed, reloading", zap.String("file", event.Path))
				if err := old.stop(); err != nil {
					old.logger.Error("reload shutdown error", zap.Error(err))
				}

				next, err := NewServer(runEnv)
				if err != nil {
					bootstrapLogger.Error("reload failed", zap.Error(err))
					continue
				}
				holder.set(next)
			case err := <-w.Error:
				holder.get().logger.Error("config watcher error", zap.Error(err))
			case <-w.Closed:
				bootstrapLogger.Info("config watcher closed")
				return
			}
		}
	}()

	if err := w.Add(runEnv.config); err != nil {
		bootstrapLogger.Error("config watcher add error", zap.Error(err))
		return
	}
	if err := w.Start(configPollInterval); err != nil {
		bootstrapLogger.Error("config watcher start error", zap.Error(err))
	}
}

func runService(runEnv *runFlags) {
	if runEnv.dir != "" {
		if err := os.Chdir(runEnv.dir); err != nil {
			bootstrapLogger.Error("failed to change the current working directory", zap.Error(err))
		} else {
			bootstrapLogger.Info("working directory changed", zap.String("dir", runEnv.dir))
		}
	}

	if runEnv.config == "" {
		path, err := resolveConfigPath()
		if err != nil {
			bootstrapLogger.Error("resolve config error", zap.Error(err))
			return
		}
		runEnv.config = path
	}

	s, err := NewServer(runEnv)
	if err != nil {
		bootstrapLogger.Error("service start error", zap.Error(err))
		return
	}
	holder := &serverHolder{srv: s}
	go watchConfig(runEnv, holder)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	srv := holder.get()
	srv.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	if err := srv.stop(); err != nil {
		srv.logger.Error("shutdown completed with error", zap.Error(err))
		return
	}
	srv.logger.Info("service stopped")
}

func init() {
	runEnv := new(runFlags)
	runCommand := &cobra.Command{
		Use:   "run [-c config_file] [-d working_dir] [-p port] [-m mode]",
		Short: "Run the revision service",
		Run: func(cmd *cobra.Command, args []string) {
			runService(runEnv)
		},
	}

	fs := runCommand.Flags()
	fs.StringVarP(&runEnv.dir, "dir", "d", "", "working directory")
	fs.StringVarP(&runEnv.port, "port", "p", "", "listen port, overrides server.http-port")
	fs.StringVarP(&runEnv.runMode, "mode", "m", "", "gin run mode: debug / release / test")
	fs.StringVarP(&runEnv.config, "config", "c", "", "config file")
	rootCmd.AddCommand(runCommand)
}
