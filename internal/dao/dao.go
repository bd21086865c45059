// Package dao 实现数据访问层
package dao

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/block-note-service/pkg/fileurl"
	"github.com/haierkeys/block-note-service/pkg/util"
	"github.com/haierkeys/block-note-service/pkg/writequeue"

	"github.com/glebarez/sqlite"
	"github.com/haierkeys/gormTracing"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Type sqlite | mysql | postgres
	Type        string
	Path        string
	UserName    string
	Password    string
	Host        string
	Name        string
	TablePrefix string
	AutoMigrate bool
	Charset     string
	ParseTime   bool
	// Replicas read-only hosts for mysql / postgres, same credentials as Host
	// Replicas 只读从库地址
	Replicas        []string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime string
	ConnMaxIdleTime string
	RunMode         string
}

// Dao 数据访问对象
type Dao struct {
	db         *gorm.DB
	ctx        context.Context
	config     *DatabaseConfig
	logger     *zap.Logger
	writeQueue *writequeue.Manager

	onceKeys sync.Map
}

// Option Dao 可选项
type Option func(*Dao)

// WithConfig 注入数据库配置
func WithConfig(c *DatabaseConfig) Option {
	return func(d *Dao) { d.config = c }
}

// WithLogger 注入日志器
func WithLogger(l *zap.Logger) Option {
	return func(d *Dao) { d.logger = l }
}

// WithWriteQueueManager 注入写队列管理器
func WithWriteQueueManager(m *writequeue.Manager) Option {
	return func(d *Dao) { d.writeQueue = m }
}

// New 创建 Dao 实例
func New(db *gorm.DB, ctx context.Context, opts ...Option) *Dao {
	d := &Dao{db: db, ctx: ctx}
	for _, opt := range opts {
		opt(d)
	}
	if d.config == nil {
		d.config = &DatabaseConfig{AutoMigrate: true}
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	return d
}

// DB 获取数据库连接
func (d *Dao) DB() *gorm.DB {
	return d.db
}

// Logger 获取日志器
func (d *Dao) Logger() *zap.Logger {
	return d.logger
}

// UseWithOnceFunc returns a session bound to ctx; f runs once per key first
// (table migration), a failing f is retried on the next call
// UseWithOnceFunc 返回绑定 ctx 的会话，首次调用时按 key 执行一次 f（自动迁移）
func (d *Dao) UseWithOnceFunc(ctx context.Context, f func(g *gorm.DB) error, key string) (*gorm.DB, error) {
	if d.config.AutoMigrate {
		if _, done := d.onceKeys.Load(key); !done {
			if err := f(d.db); err != nil {
				return nil, errors.Wrapf(err, "dao: migrate %s", key)
			}
			d.onceKeys.Store(key, struct{}{})
		}
	}
	return d.db.WithContext(ctx), nil
}

// ExecuteWrite serializes fn with every other write of the same owner
// Without a write queue fn runs inline
// ExecuteWrite 同一用户的写操作串行执行
func (d *Dao) ExecuteWrite(ctx context.Context, uid int64, fn func() error) error {
	if d.writeQueue == nil {
		return fn()
	}
	return d.writeQueue.Execute(ctx, fmt.Sprintf("uid:%d", uid), fn)
}

// NewDBEngineWithConfig 根据配置创建数据库连接
func NewDBEngineWithConfig(c DatabaseConfig, lg *zap.Logger) (*gorm.DB, error) {
	dialector, err := openDialector(c, c.Host)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Silent
	if c.RunMode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   c.TablePrefix, // 表名前缀，`User` 的表名应该是 `t_users`
			SingularTable: true,          // 使用单数表名，此时 `User` 的表名应该是 `t_user`
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "dao: open %s", c.Type)
	}

	if len(c.Replicas) > 0 {
		replicas := make([]gorm.Dialector, 0, len(c.Replicas))
		for _, host := range c.Replicas {
			r, err := openDialector(c, host)
			if err != nil {
				return nil, err
			}
			replicas = append(replicas, r)
		}
		if err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		})); err != nil {
			return nil, errors.Wrap(err, "dao: register replicas")
		}
	}

	// 获取通用数据库对象 sql.DB ，然后使用其提供的功能
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if isSQLite(c.Type) {
		// sqlite 单连接
		sqlDB.SetMaxOpenConns(1)
	} else {
		if c.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(c.MaxOpenConns)
		}
		if c.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(c.MaxIdleConns)
		}
		sqlDB.SetConnMaxLifetime(util.ParseDurationOr(c.ConnMaxLifetime, 30*time.Minute))
		sqlDB.SetConnMaxIdleTime(util.ParseDurationOr(c.ConnMaxIdleTime, 10*time.Minute))
	}

	if err := db.Use(&gormTracing.OpentracingPlugin{}); err != nil {
		lg.Warn("gorm tracing plugin not installed", zap.Error(err))
	}

	lg.Info("database connected",
		zap.String("type", c.Type),
		zap.Int("replicas", len(c.Replicas)))

	return db, nil
}

func openDialector(c DatabaseConfig, host string) (gorm.Dialector, error) {
	switch c.Type {
	case "mysql":
		charset := c.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=%t&loc=Local",
			c.UserName,
			c.Password,
			host,
			c.Name,
			charset,
			c.ParseTime,
		)), nil
	case "postgres", "postgresql":
		h, port, err := net.SplitHostPort(host)
		if err != nil {
			h, port = host, "5432"
		}
		return postgres.Open(fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			h, port, c.UserName, c.Password, c.Name)), nil
	case "sqlite", "":
		if c.Path == "" {
			return nil, errors.New("dao: sqlite path is required")
		}
		if !strings.HasPrefix(c.Path, "file:") && c.Path != ":memory:" && !fileurl.IsExist(c.Path) {
			if err := fileurl.CreatePath(c.Path, os.ModePerm); err != nil {
				return nil, errors.Wrap(err, "dao: create sqlite dir")
			}
		}
		return sqlite.Open(c.Path), nil
	}
	return nil, fmt.Errorf("dao: unsupported database type %q", c.Type)
}

func isSQLite(t string) bool {
	return t == "sqlite" || t == ""
}
