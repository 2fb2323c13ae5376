package task

import (
	"context"
	"time"

	"github.com/haierkeys/novel-sync-service/internal/app"
)

// StatsTask 刷新存储统计指标
type StatsTask struct {
	app *app.App
}

// Name 返回任务名称
func (t *StatsTask) Name() string {
	return "StoreStats"
}

// LoopInterval 返回执行间隔
func (t *StatsTask) LoopInterval() time.Duration {
	return 5 * time.Minute
}

// IsStartupRun 是否立即执行一次
func (t *StatsTask) IsStartupRun() bool {
	return true
}

// Run 执行统计
func (t *StatsTask) Run(ctx context.Context) error {
	_, err := t.app.StatsService.Refresh(ctx)
	return err
}

// NewStatsTask 创建统计任务
func NewStatsTask(appContainer *app.App) *StatsTask {
	return &StatsTask{app: appContainer}
}

func init() {
	register(func(appContainer *app.App) (Task, error) {
		return NewStatsTask(appContainer), nil
	})
}
