package task

import (
	"context"
	"sync"
	"time"

	"github.com/haierkeys/novel-sync-service/internal/app"
	"github.com/haierkeys/novel-sync-service/pkg/logger"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronParser 标准五段 cron 表达式
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// SnapshotTask 按 cron 表达式导出快照
// 每分钟检查一次是否到期，到期后通过 Worker Pool 执行导出
type SnapshotTask struct {
	app      *app.App
	logger   *zap.Logger
	schedule cron.Schedule
	now      func() time.Time

	mu      sync.Mutex
	nextRun time.Time
}

// Name 返回任务名称
func (t *SnapshotTask) Name() string {
	return "SnapshotExport"
}

// LoopInterval 返回执行间隔
func (t *SnapshotTask) LoopInterval() time.Duration {
	return time.Minute
}

// IsStartupRun 是否立即执行一次
func (t *SnapshotTask) IsStartupRun() bool {
	return false
}

// NextRun 下次执行时间
func (t *SnapshotTask) NextRun() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nextRun
}

// Run 到期时导出快照
func (t *SnapshotTask) Run(ctx context.Context) error {
	now := t.now()

	t.mu.Lock()
	if now.Before(t.nextRun) {
		t.mu.Unlock()
		return nil
	}
	t.nextRun = t.schedule.Next(now)
	next := t.nextRun
	t.mu.Unlock()

	return t.app.SubmitTask(ctx, func(ctx context.Context) error {
		res, err := t.app.SnapshotService.Export(ctx)
		if err != nil {
			return err
		}
		t.logger.Info("task log",
			zap.String(logger.FieldTask, t.Name()),
			zap.String(logger.FieldPath, res.Path),
			zap.Int(logger.FieldCount, res.Records),
			zap.Time("nextRun", next))
		return nil
	})
}

// NewSnapshotTask 创建快照任务，未启用时返回 nil
func NewSnapshotTask(appContainer *app.App, now func() time.Time) (*SnapshotTask, error) {
	cfg := appContainer.Config().Snapshot
	if !cfg.Enabled || appContainer.SnapshotService == nil {
		return nil, nil
	}

	schedule, err := cronParser.Parse(cfg.Cron)
	if err != nil {
		return nil, errors.Wrapf(err, "parse snapshot cron %q", cfg.Cron)
	}

	if now == nil {
		now = time.Now
	}

	return &SnapshotTask{
		app:      appContainer,
		logger:   appContainer.Logger(),
		schedule: schedule,
		now:      now,
		nextRun:  schedule.Next(now()),
	}, nil
}

func init() {
	register(func(appContainer *app.App) (Task, error) {
		t, err := NewSnapshotTask(appContainer, nil)
		if err != nil || t == nil {
			return nil, err
		}
		return t, nil
	})
}
