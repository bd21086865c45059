// Package app 应用容器：配置、存储、服务的装配与关闭
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/haierkeys/block-note-service/internal/dao"
	"github.com/haierkeys/block-note-service/internal/service"
	pkgapp "github.com/haierkeys/block-note-service/pkg/app"
	"github.com/haierkeys/block-note-service/pkg/writequeue"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultShutdownTimeout used when Shutdown gets a context without deadline
const DefaultShutdownTimeout = 30 * time.Second

// App wires the note and user services onto one database
// App 应用容器
type App struct {
	config *AppConfig
	logger *zap.Logger
	db     *gorm.DB

	// 按用户串行化写操作
	writes *writequeue.Manager

	NoteService service.NoteService
	UserService service.UserService

	startedAt    time.Time
	shutdownOnce sync.Once
	shutdownErr  error
}

// NewApp 装配容器，cfg、logger、db 均不可为空
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB) (*App, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("app: configuration is required")
	case logger == nil:
		return nil, errors.New("app: logger is required")
	case db == nil:
		return nil, errors.New("app: database is required")
	}

	wqConfig := cfg.GetWriteQueueConfig()
	dbConfig := cfg.DatabaseConfig()

	a := &App{
		config:    cfg,
		logger:    logger,
		db:        db,
		writes:    writequeue.New(&wqConfig, logger),
		startedAt: time.Now(),
	}

	d := dao.New(db, context.Background(),
		dao.WithConfig(&dbConfig),
		dao.WithLogger(logger),
		dao.WithWriteQueueManager(a.writes),
	)
	tokens := pkgapp.NewTokenManager(pkgapp.TokenConfig{
		SecretKey: cfg.Security.AuthTokenKey,
		Issuer:    ServiceName,
		Expiry:    cfg.GetTokenExpiry(),
	})

	svcConfig := cfg.ServiceConfig()
	a.NoteService = service.NewNoteService(dao.NewNoteRepository(d), logger, svcConfig)
	a.UserService = service.NewUserService(dao.NewUserRepository(d), tokens, logger, svcConfig)

	if cfg.UsesDefaultSecret() {
		logger.Warn("security.auth-token-key is the shipped default, set a private key or " + EnvAuthTokenKey)
	}
	logger.Info("app container ready",
		zap.String("database", dbConfig.Type),
		zap.Duration("tokenExpiry", tokens.Expiry()),
		zap.Int("writeQueueCapacity", wqConfig.QueueCapacity))

	return a, nil
}

// DatabaseConfig DAO 使用的数据库配置
func (c *AppConfig) DatabaseConfig() dao.DatabaseConfig {
	db := c.Database
	return dao.DatabaseConfig{
		Type:            db.Type,
		Path:            db.Path,
		UserName:        db.UserName,
		Password:        db.Password,
		Host:            db.Host,
		Name:            db.Name,
		TablePrefix:     db.TablePrefix,
		AutoMigrate:     db.AutoMigrate,
		Charset:         db.Charset,
		ParseTime:       db.ParseTime,
		Replicas:        db.Replicas,
		MaxIdleConns:    db.MaxIdleConns,
		MaxOpenConns:    db.MaxOpenConns,
		ConnMaxLifetime: db.ConnMaxLifetime,
		ConnMaxIdleTime: db.ConnMaxIdleTime,
		RunMode:         c.Server.RunMode,
	}
}

// ServiceConfig Service 层配置
func (c *AppConfig) ServiceConfig() *service.ServiceConfig {
	return &service.ServiceConfig{
		User: service.UserServiceConfig{
			RegisterIsEnable:  c.User.RegisterIsEnable,
			UsernameMaxLength: c.User.UsernameMaxLength,
			PasswordMinLength: c.User.PasswordMinLength,
		},
		App: service.AppServiceConfig{
			SearchLimit: c.App.SearchLimit,
		},
	}
}

func (a *App) Config() *AppConfig {
	return a.config
}

func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Version 构建信息
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{Version: Version, GitTag: GitTag, BuildTime: BuildTime}
}

func (a *App) Uptime() time.Duration {
	return time.Since(a.startedAt)
}

// Ping 检查数据库连接
func (a *App) Ping(ctx context.Context) error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Shutdown drains the write queues and closes the database, later calls return the first result
// Shutdown 先排空写队列再关闭数据库，只执行一次
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownOnce.Do(func() {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, DefaultShutdownTimeout)
			defer cancel()
		}

		var errs []error
		if err := a.writes.Shutdown(ctx); err != nil {
			a.logger.Warn("write queue shutdown", zap.Error(err))
			errs = append(errs, fmt.Errorf("write queue: %w", err))
		}

		if sqlDB, err := a.db.DB(); err != nil {
			errs = append(errs, fmt.Errorf("database handle: %w", err))
		} else if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}

		a.shutdownErr = errors.Join(errs...)
		a.logger.Info("app container closed", zap.Error(a.shutdownErr))
	})
	return a.shutdownErr
}
