// Package app 组装配置、存储、服务与后台组件
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/haierkeys/novel-sync-service/internal/dao"
	"github.com/haierkeys/novel-sync-service/internal/dto"
	"github.com/haierkeys/novel-sync-service/internal/service"
	pkgapp "github.com/haierkeys/novel-sync-service/pkg/app"
	"github.com/haierkeys/novel-sync-service/pkg/logger"
	"github.com/haierkeys/novel-sync-service/pkg/storage"
	"github.com/haierkeys/novel-sync-service/pkg/timex"
	"github.com/haierkeys/novel-sync-service/pkg/workerpool"
	"github.com/haierkeys/novel-sync-service/pkg/writequeue"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WebSocketMsgSyncHint 同步提示消息类型
const WebSocketMsgSyncHint = "SyncHint"

// DefaultShutdownTimeout Shutdown 传入 nil ctx 时的超时
const DefaultShutdownTimeout = 30 * time.Second

// App 进程内唯一的依赖容器，由 cmd 创建，路由与定时任务通过它取得服务
type App struct {
	config *AppConfig
	logger *zap.Logger
	clock  timex.Clock
	db     *gorm.DB

	pool   *workerpool.Pool
	writes *writequeue.Manager

	SyncService  service.SyncService
	UserService  service.UserService
	StatsService service.StatsService
	// SnapshotService 快照存储不可用时为 nil
	SnapshotService service.SnapshotService

	TokenManager pkgapp.TokenManager
	WsServer     *pkgapp.WebsocketServer

	closing chan struct{}
}

// Option NewApp 选项
type Option func(*App)

// WithClock 替换记录时间戳使用的时钟
func WithClock(c timex.Clock) Option {
	return func(a *App) { a.clock = c }
}

// NewApp cfg、lg、db 均不能为空
func NewApp(cfg *AppConfig, lg *zap.Logger, db *gorm.DB, opts ...Option) (*App, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("configuration is required")
	case lg == nil:
		return nil, errors.New("logger is required")
	case db == nil:
		return nil, errors.New("database is required")
	}

	a := &App{config: cfg, logger: lg, clock: timex.System, db: db, closing: make(chan struct{})}
	for _, opt := range opts {
		opt(a)
	}

	poolCfg := cfg.GetWorkerPoolConfig()
	queueCfg := cfg.GetWriteQueueConfig()
	dbCfg := cfg.GetDatabaseConfig()
	svcCfg := cfg.GetServiceConfig()

	a.pool = workerpool.New(&poolCfg, lg)
	a.writes = writequeue.New(&queueCfg, lg)

	d := dao.New(db,
		dao.WithConfig(&dbCfg),
		dao.WithLogger(lg),
		dao.WithWriteQueueManager(a.writes),
		dao.WithClock(a.clock),
	)
	uow := dao.NewUnitOfWork(d)

	a.TokenManager = pkgapp.NewTokenManager(pkgapp.TokenConfig{
		SecretKey: cfg.Security.AuthTokenKey,
		Expiry:    cfg.GetTokenExpiry(),
	})
	a.WsServer = pkgapp.NewWebsocketServer(pkgapp.WebsocketServerConfig{
		RequireAuth:  cfg.Security.RequireAuth,
		TokenManager: a.TokenManager,
		Logger:       lg,
	})

	var notifier service.SyncNotifier
	if svcCfg.Sync.HintEnabled {
		notifier = &hintNotifier{app: a}
	}
	a.SyncService = service.NewSyncService(uow, a.clock, notifier, lg, svcCfg)
	a.UserService = service.NewUserService(dao.NewUserRepository(d), a.TokenManager, lg, svcCfg)
	a.StatsService = service.NewStatsService(dao.NewStatsRepository(d), time.Now(), Version, lg)

	st, err := storage.NewClient(&cfg.Snapshot.Storage, lg)
	switch {
	case err == nil:
		a.SnapshotService = service.NewSnapshotService(uow, st, a.clock, lg, svcCfg)
	case cfg.Snapshot.Enabled:
		return nil, fmt.Errorf("snapshot storage: %w", err)
	default:
		lg.Warn("snapshot storage unavailable, snapshots disabled", zap.Error(err))
	}

	lg.Info("app initialized",
		zap.Int("workerPoolMaxWorkers", poolCfg.MaxWorkers),
		zap.Int("writeQueueCapacity", queueCfg.QueueCapacity),
		zap.Bool("hintEnabled", svcCfg.Sync.HintEnabled),
		zap.Bool("snapshotEnabled", a.SnapshotService != nil && cfg.Snapshot.Enabled))

	return a, nil
}

// hintNotifier 提交成功后经 worker pool 异步广播 SyncHint，推送请求不等待广播
type hintNotifier struct {
	app *App
}

func (n *hintNotifier) NotifySync(hint dto.SyncHint) {
	a := n.app
	if a.IsShuttingDown() {
		return
	}
	err := a.pool.SubmitAsync(context.Background(), func(context.Context) error {
		return a.WsServer.Broadcast(WebSocketMsgSyncHint, hint)
	})
	if err != nil {
		a.logger.Warn("sync hint dropped", zap.Int64(logger.FieldCursor, hint.Cursor), zap.Error(err))
	}
}

func (a *App) Config() *AppConfig { return a.config }

func (a *App) Logger() *zap.Logger { return a.logger }

// SubmitTask 在 worker pool 中执行 task 并等待结果
func (a *App) SubmitTask(ctx context.Context, task func(context.Context) error) error {
	return a.pool.Submit(ctx, task)
}

func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{Version: Version, GitTag: GitTag, BuildTime: BuildTime}
}

// IsShuttingDown Shutdown 是否已被调用
func (a *App) IsShuttingDown() bool {
	select {
	case <-a.closing:
		return true
	default:
		return false
	}
}

// Shutdown 依次关闭 worker pool、写队列和数据库连接，重复调用直接返回
// worker pool 先于写队列关闭，排队中的任务仍可完成写入
func (a *App) Shutdown(ctx context.Context) error {
	if a.IsShuttingDown() {
		return nil
	}
	close(a.closing)

	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
	}

	var errs []error
	if err := a.pool.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("worker pool: %w", err))
	}
	if err := a.writes.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("write queue: %w", err))
	}
	if sqlDB, err := a.db.DB(); err != nil {
		errs = append(errs, fmt.Errorf("get sql.DB: %w", err))
	} else if err := sqlDB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("app shutdown completed with errors", zap.Error(err))
		return err
	}
	a.logger.Info("app shutdown completed")
	return nil
}
