// Package dao 实现数据访问层
package dao

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/medref/revision-service/pkg/util"
	"github.com/medref/revision-service/pkg/writequeue"

	"github.com/glebarez/sqlite"
	"github.com/haierkeys/gormTracing"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

// DatabaseConfig 数据库连接配置
type DatabaseConfig struct {
	Type            string   // sqlite / mysql / postgres
	Path            string   // sqlite 文件路径
	UserName        string   // 用户名
	Password        string   // 密码
	Host            string   // 主机（含端口）
	Name            string   // 数据库名
	TablePrefix     string   // 表前缀
	AutoMigrate     bool     // 启动时自动迁移
	Charset         string   // mysql 字符集
	ParseTime       bool     // mysql parseTime
	SSLMode         string   // postgres sslmode
	MaxIdleConns    int      // 最大空闲连接
	MaxOpenConns    int      // 最大打开连接
	ConnMaxLifetime string   // 连接最大存活时间，如 "10m"
	ConnMaxIdleTime string   // 连接最大空闲时间
	Replicas        []string // 只读副本 DSN（与主库同类型）
	RunMode         string   // debug 时输出 SQL
}

type Dao struct {
	Db         *gorm.DB
	ctx        context.Context
	config     *DatabaseConfig
	logger     *zap.Logger
	writeQueue *writequeue.Manager
}

// Option Dao 可选项
type Option func(*Dao)

// WithConfig 注入数据库配置
func WithConfig(c *DatabaseConfig) Option {
	return func(d *Dao) { d.config = c }
}

// WithLogger 注入日志器
func WithLogger(lg *zap.Logger) Option {
	return func(d *Dao) { d.logger = lg }
}

// WithWriteQueueManager 注入写队列，文章写入按文章ID串行
func WithWriteQueueManager(m *writequeue.Manager) Option {
	return func(d *Dao) { d.writeQueue = m }
}

func New(db *gorm.DB, ctx context.Context, opts ...Option) *Dao {
	d := &Dao{Db: db, ctx: ctx}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	if d.ctx == nil {
		d.ctx = context.Background()
	}
	return d
}

func (d *Dao) DB() *gorm.DB {
	return d.Db
}

// Logger 获取日志器
func (d *Dao) Logger() *zap.Logger {
	return d.logger
}

// Config 获取数据库配置，可能为 nil
func (d *Dao) Config() *DatabaseConfig {
	return d.config
}

// WithContext 返回绑定 ctx 的会话
func (d *Dao) WithContext(ctx context.Context) *gorm.DB {
	if ctx == nil {
		ctx = d.ctx
	}
	return d.Db.WithContext(ctx)
}

// ExecuteWrite runs fn on key's write queue; without a queue it runs inline
// ExecuteWrite 在 key 对应的写队列中执行 fn，未配置写队列时直接执行
func (d *Dao) ExecuteWrite(ctx context.Context, key int64, fn func(db *gorm.DB) error) error {
	if d.writeQueue == nil {
		return fn(d.WithContext(ctx))
	}
	return d.writeQueue.Execute(ctx, key, func() error {
		return fn(d.WithContext(ctx))
	})
}

// NewDBEngineWithConfig opens the database described by c and applies pool, replica and tracing settings
// NewDBEngineWithConfig 根据配置打开数据库，并设置连接池、只读副本与链路追踪
func NewDBEngineWithConfig(c DatabaseConfig, lg *zap.Logger) (*gorm.DB, error) {
	if lg == nil {
		lg = zap.NewNop()
	}

	dialector, err := openDialector(c, dsnFor(c))
	if err != nil {
		return nil, err
	}

	logMode := logger.Silent
	if c.RunMode == "debug" {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logMode),
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   c.TablePrefix, // 表名前缀，`Article` 的表名应该是 `t_article`
			SingularTable: true,          // 使用单数表名
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", c.Type, err)
	}

	if len(c.Replicas) > 0 {
		replicas := make([]gorm.Dialector, 0, len(c.Replicas))
		for _, dsn := range c.Replicas {
			r, err := openDialector(c, dsn)
			if err != nil {
				return nil, err
			}
			replicas = append(replicas, r)
		}
		if err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		})); err != nil {
			return nil, fmt.Errorf("register replicas: %w", err)
		}
		lg.Info("database replicas registered", zap.Int("count", len(replicas)))
	}

	// 获取通用数据库对象 sql.DB ，然后使用其提供的功能
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	maxOpen := c.MaxOpenConns
	if c.Type == "sqlite" {
		// SQLite 只允许单写者
		maxOpen = 1
	}
	if c.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	sqlDB.SetConnMaxLifetime(util.ParseDurationOr(c.ConnMaxLifetime, 10*time.Minute))
	sqlDB.SetConnMaxIdleTime(util.ParseDurationOr(c.ConnMaxIdleTime, 5*time.Minute))

	_ = db.Use(&gormTracing.OpentracingPlugin{})

	lg.Info("database connected", zap.String("type", c.Type))
	return db, nil
}

// dsnFor 主库连接串
func dsnFor(c DatabaseConfig) string {
	switch c.Type {
	case "mysql":
		charset := c.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=%t&loc=Local",
			c.UserName, c.Password, c.Host, c.Name, charset, c.ParseTime)
	case "postgres":
		host, port := c.Host, "5432"
		if i := strings.LastIndex(c.Host, ":"); i > 0 {
			host, port = c.Host[:i], c.Host[i+1:]
		}
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			host, port, c.UserName, c.Password, c.Name, sslMode)
	default:
		return c.Path
	}
}

func openDialector(c DatabaseConfig, dsn string) (gorm.Dialector, error) {
	switch c.Type {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite", "":
		if dsn == "" {
			return nil, fmt.Errorf("sqlite path is empty")
		}
		if dir := filepath.Dir(dsn); dir != "" && dsn != ":memory:" {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		return sqlite.Open(sqliteDSN(dsn)), nil
	}
	return nil, fmt.Errorf("unsupported database type %q", c.Type)
}

// sqliteDSN 追加忙等待与 WAL
func sqliteDSN(path string) string {
	if path == ":memory:" || strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}
