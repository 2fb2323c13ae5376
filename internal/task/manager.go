package task

import (
	"github.com/haierkeys/novel-sync-service/internal/app"
	"github.com/haierkeys/novel-sync-service/pkg/logger"
	"github.com/haierkeys/novel-sync-service/pkg/safe_close"

	"go.uber.org/zap"
)

// Manager 根据配置创建已注册的任务并交给 Scheduler
type Manager struct {
	scheduler *Scheduler
	logger    *zap.Logger
	app       *app.App
}

func NewManager(lg *zap.Logger, sc *safe_close.SafeClose, a *app.App) *Manager {
	return &Manager{scheduler: NewScheduler(lg, sc), logger: lg, app: a}
}

// RegisterTasks 单个任务创建失败只记录日志
func (m *Manager) RegisterTasks() error {
	for _, factory := range factories {
		t, err := factory(m.app)
		if err != nil {
			m.logger.Warn("failed to create task", zap.Error(err))
			continue
		}
		if t == nil {
			continue
		}
		m.scheduler.AddTask(t)
		m.logger.Info("task registered", zap.String(logger.FieldTask, t.Name()), zap.Duration("interval", t.LoopInterval()))
	}
	return nil
}

func (m *Manager) Start() {
	m.scheduler.Start()
}

func (m *Manager) Scheduler() *Scheduler {
	return m.scheduler
}
