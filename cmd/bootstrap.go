package cmd

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// bootstrapLogger 启动阶段日志器，主日志器初始化之前使用（配置查找、默认配置写入、热重载失败）
var bootstrapLogger *zap.Logger

// bootstrapLevel 读取 LOG_LEVEL 环境变量，兼容旧的 DEBUG 开关
func bootstrapLevel() zapcore.Level {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if lvl, err := zapcore.ParseLevel(v); err == nil {
			return lvl
		}
	}
	if os.Getenv("DEBUG") != "" {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

func init() {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stderr), bootstrapLevel())
	bootstrapLogger = zap.New(core, zap.AddCaller()).Named("bootstrap")
}

// BootstrapLogger 获取启动阶段日志器
func BootstrapLogger() *zap.Logger {
	return bootstrapLogger
}
