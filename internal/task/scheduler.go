// Package task 后台周期任务：快照导出与存储统计
package task

import (
	"context"
	"time"

	"github.com/haierkeys/novel-sync-service/internal/app"
	"github.com/haierkeys/novel-sync-service/pkg/logger"
	"github.com/haierkeys/novel-sync-service/pkg/safe_close"

	"go.uber.org/zap"
)

// Task 周期任务
type Task interface {
	Name() string
	Run(ctx context.Context) error
	// LoopInterval <= 0 时只在启动时执行（IsStartupRun 为 true 的前提下）
	LoopInterval() time.Duration
	IsStartupRun() bool
}

// Factory 由 App 创建任务，返回 (nil, nil) 表示未启用
type Factory func(a *app.App) (Task, error)

// factories 在各任务文件的 init 中追加
var factories []Factory

func register(f Factory) {
	factories = append(factories, f)
}

// Scheduler 每个任务一个 goroutine，由 safe_close 统一停止
type Scheduler struct {
	logger *zap.Logger
	sc     *safe_close.SafeClose
	tasks  []Task
}

func NewScheduler(lg *zap.Logger, sc *safe_close.SafeClose) *Scheduler {
	return &Scheduler{logger: lg, sc: sc}
}

func (s *Scheduler) AddTask(t Task) {
	s.tasks = append(s.tasks, t)
}

func (s *Scheduler) Tasks() []Task {
	return s.tasks
}

func (s *Scheduler) Start() {
	s.logger.Info("tasks starting", zap.Int("count", len(s.tasks)))
	for _, t := range s.tasks {
		s.loop(t)
	}
}

func (s *Scheduler) loop(t Task) {
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()

		// 关闭信号同时取消正在执行的 Run
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			select {
			case <-closeSignal:
				cancel()
			case <-ctx.Done():
			}
		}()

		if t.IsStartupRun() {
			s.run(ctx, t, "startupRun")
		}
		if t.LoopInterval() <= 0 {
			return
		}

		ticker := time.NewTicker(t.LoopInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.run(ctx, t, "loopRun")
			case <-ctx.Done():
				s.logger.Info("task stopped", zap.String(logger.FieldTask, t.Name()))
				return
			}
		}
	})
}

// run 执行一次，错误与 panic 只记录日志
func (s *Scheduler) run(ctx context.Context, t Task, mode string) {
	fields := []zap.Field{zap.String(logger.FieldTask, t.Name()), zap.String("mode", mode)}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panic", append(fields, zap.Any("panic", r), zap.Stack("stack"))...)
		}
	}()

	s.logger.Debug("task running", fields...)
	if err := t.Run(ctx); err != nil {
		s.logger.Error("task running error", append(fields, zap.Error(err))...)
	}
}
