// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

import "github.com/medref/revision-service/pkg/app"

// ServiceConfig service layer configuration
// ServiceConfig 服务层配置
type ServiceConfig struct {
	Revision RevisionServiceConfig // Revision engine config // 修订引擎配置
	App      AppServiceConfig      // App related config // 应用相关配置
}

// RevisionServiceConfig revision engine configuration
// RevisionServiceConfig 修订引擎配置
type RevisionServiceConfig struct {
	MaxCommitAttempts  int    // Bounded retries on a duplicate version // 版本号冲突时的最大提交次数
	DefaultEditor      string // Editor used when none is given // 未指定编辑者时的默认值
	RestoreDescription string // fmt pattern taking the source version // 恢复说明模板，参数为来源版本号
}

// AppServiceConfig app service configuration
// AppServiceConfig 应用服务配置
type AppServiceConfig struct {
	DefaultPageSize int // Default page size // 默认每页数量
	MaxPageSize     int // Max page size // 每页最大数量
}

// DefaultServiceConfig 默认服务配置
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		Revision: RevisionServiceConfig{
			MaxCommitAttempts:  3,
			DefaultEditor:      "admin",
			RestoreDescription: "Restored from version %d",
		},
		App: AppServiceConfig{
			DefaultPageSize: app.DefaultPaginationConfig.DefaultPageSize,
			MaxPageSize:     app.DefaultPaginationConfig.MaxPageSize,
		},
	}
}

// normalize 用默认值补齐未设置的项
func (c *ServiceConfig) normalize() *ServiceConfig {
	def := DefaultServiceConfig()
	if c == nil {
		return def
	}
	out := *c
	if out.Revision.MaxCommitAttempts <= 0 {
		out.Revision.MaxCommitAttempts = def.Revision.MaxCommitAttempts
	}
	if out.Revision.DefaultEditor == "" {
		out.Revision.DefaultEditor = def.Revision.DefaultEditor
	}
	if out.Revision.RestoreDescription == "" {
		out.Revision.RestoreDescription = def.Revision.RestoreDescription
	}
	if out.App.DefaultPageSize <= 0 {
		out.App.DefaultPageSize = def.App.DefaultPageSize
	}
	if out.App.MaxPageSize <= 0 {
		out.App.MaxPageSize = def.App.MaxPageSize
	}
	return &out
}

// pagination 转换为分页配置
func (c *ServiceConfig) pagination() app.PaginationConfig {
	return app.PaginationConfig{
		DefaultPageSize: c.App.DefaultPageSize,
		MaxPageSize:     c.App.MaxPageSize,
	}
}
