package upgrade

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/medref/revision-service/internal/model"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"
	"gorm.io/gorm"
)

// baselineVersion 无 lastVersion 记录时的基准版本，所有迁移都会执行
const baselineVersion = "v0.0.0"

// SchemaVersion 数据库版本记录表
type SchemaVersion struct {
	ID          int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Version     string    `gorm:"not null;uniqueIndex;type:varchar(64)" json:"version"`
	Description string    `gorm:"type:text" json:"description"`
	AppliedAt   time.Time `gorm:"not null" json:"appliedAt"`
}

// TableName 指定表名
func (SchemaVersion) TableName() string {
	return "schema_version"
}

// Migration 定义升级接口
type Migration interface {
	Version() string
	Description() string
	Up(db *gorm.DB, ctx context.Context) error
}

// MigrationManager 升级管理器
type MigrationManager struct {
	db             *gorm.DB
	logger         *zap.Logger
	runningVersion string
	stateFile      string // 记录上次运行版本的文件，为空时不读写
	migrations     []Migration
}

// NewMigrationManager 创建升级管理器
func NewMigrationManager(db *gorm.DB, logger *zap.Logger, runningVersion, stateFile string) *MigrationManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MigrationManager{
		db:             db,
		logger:         logger,
		runningVersion: normalize(runningVersion),
		stateFile:      stateFile,
		migrations: []Migration{
			// 在这里注册所有的升级脚本，按版本号升序
			&ArticleSlugIndexMigrate{},
			&RestoreChangeTypeMigrate{},
		},
	}
}

// normalize 补齐 semver 需要的 "v" 前缀
func normalize(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// Run 执行升级
func (m *MigrationManager) Run(ctx context.Context) error {
	m.logger.Info("Migration started")

	if err := model.AutoMigrate(m.db, ""); err != nil {
		return fmt.Errorf("failed to dao db auto migrate: %w", err)
	}

	// 确保 schema_version 表存在
	if err := m.db.AutoMigrate(&SchemaVersion{}); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	pending, skipped, err := m.plan()
	if err != nil || skipped {
		return err
	}

	for _, migration := range pending {
		scriptVersion := normalize(migration.Version())
		m.logger.Info("applying migration",
			zap.String("scriptVersion", scriptVersion),
			zap.String("desc", migration.Description()))

		// 在事务中执行升级并记录版本
		if err := m.db.Transaction(func(tx *gorm.DB) error {
			if err := migration.Up(tx, ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			record := &SchemaVersion{
				Version:     scriptVersion,
				Description: migration.Description(),
				AppliedAt:   time.Now(),
			}
			if err := tx.Create(record).Error; err != nil {
				return fmt.Errorf("failed to record version: %w", err)
			}
			return nil
		}); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", scriptVersion, err)
		}

		m.logger.Info("migration applied successfully", zap.String("scriptVersion", scriptVersion))
	}

	if len(pending) == 0 {
		m.logger.Info("database is already up to date")
	} else {
		m.logger.Info("upgrade completed", zap.Int("migrationsApplied", len(pending)))
	}

	// 写入当前版本作为下一次运行的基准，失败不阻断启动
	if err := m.saveReferenceVersion(); err != nil {
		m.logger.Error("save lastVersion failed", zap.Error(err))
	}
	return nil
}

// Pending 返回下一次 Run 将要执行的升级脚本，不修改数据库
func (m *MigrationManager) Pending() ([]Migration, error) {
	pending, _, err := m.plan()
	return pending, err
}

// plan 按上次运行版本与 schema_version 记录筛选待执行脚本
// 当前版本不高于上次运行版本时 skipped 为 true
func (m *MigrationManager) plan() (pending []Migration, skipped bool, err error) {
	applied, err := m.getAppliedVersions()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get applied versions: %w", err)
	}

	lastVersion := normalize(m.getReferenceVersion())
	if !semver.IsValid(lastVersion) {
		m.logger.Warn("reference version is not a valid semver, using baseline",
			zap.String("lastVersion", lastVersion))
		lastVersion = baselineVersion
	}
	if semver.IsValid(m.runningVersion) && semver.Compare(m.runningVersion, lastVersion) <= 0 {
		m.logger.Info("skipping upgrade",
			zap.String("runningVersion", m.runningVersion),
			zap.String("lastVersion", lastVersion))
		return nil, true, nil
	}

	for _, mg := range m.migrations {
		v := normalize(mg.Version())
		if semver.Compare(v, lastVersion) <= 0 || applied[v] {
			continue
		}
		pending = append(pending, mg)
	}
	return pending, false, nil
}

// getAppliedVersions 获取已应用的数据库版本，schema_version 表不存在时视为空
func (m *MigrationManager) getAppliedVersions() (map[string]bool, error) {
	var versions []SchemaVersion
	if !m.db.Migrator().HasTable(&SchemaVersion{}) {
		return map[string]bool{}, nil
	}
	if err := m.db.Find(&versions).Error; err != nil {
		return nil, err
	}
	applied := make(map[string]bool, len(versions))
	for _, v := range versions {
		applied[normalize(v.Version)] = true
	}
	return applied, nil
}

// getReferenceVersion 读取上次运行版本，文件不存在或为空时返回基准版本
func (m *MigrationManager) getReferenceVersion() string {
	if m.stateFile == "" {
		return baselineVersion
	}
	content, err := os.ReadFile(m.stateFile)
	if err != nil {
		if !os.IsNotExist(err) {
			m.logger.Warn("read lastVersion failed", zap.String("file", m.stateFile), zap.Error(err))
		}
		return baselineVersion
	}
	if ver := strings.TrimSpace(string(content)); ver != "" {
		return ver
	}
	return baselineVersion
}

// saveReferenceVersion 保存当前版本号
func (m *MigrationManager) saveReferenceVersion() error {
	if m.stateFile == "" || m.runningVersion == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.stateFile), 0o755); err != nil {
		return err
	}
	return os.WriteFile(m.stateFile, []byte(m.runningVersion), 0o644)
}

// Execute 执行升级(便捷方法)
func Execute(db *gorm.DB, logger *zap.Logger, runningVersion, stateFile string) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	return NewMigrationManager(db, logger, runningVersion, stateFile).Run(context.Background())
}
