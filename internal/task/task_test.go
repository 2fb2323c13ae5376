package task

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haierkeys/novel-sync-service/internal/app"
	"github.com/haierkeys/novel-sync-service/internal/dao"
	"github.com/haierkeys/novel-sync-service/internal/dto"
	"github.com/haierkeys/novel-sync-service/pkg/safe_close"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T, mutate func(cfg *app.AppConfig)) *app.App {
	t.Helper()

	cfg, err := app.ParseConfig(nil)
	require.NoError(t, err)
	dir := t.TempDir()
	cfg.Database.Path = filepath.Join(dir, "novel.db")
	cfg.Snapshot.Storage.SavePath = filepath.Join(dir, "snapshots")
	if mutate != nil {
		mutate(cfg)
	}

	db, err := dao.NewDBEngine(cfg.GetDatabaseConfig(), zap.NewNop())
	require.NoError(t, err)

	a, err := app.NewApp(cfg, zap.NewNop(), db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

// fakeClock 可手动推进的时间源
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func TestNewSnapshotTask_Disabled(t *testing.T) {
	a := newTestApp(t, nil)

	task, err := NewSnapshotTask(a, nil)
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestNewSnapshotTask_InvalidCron(t *testing.T) {
	a := newTestApp(t, func(cfg *app.AppConfig) {
		cfg.Snapshot.Enabled = true
		cfg.Snapshot.Cron = "every day"
	})

	_, err := NewSnapshotTask(a, nil)
	assert.Error(t, err)
}

func TestSnapshotTask_RunsOnlyWhenDue(t *testing.T) {
	a := newTestApp(t, func(cfg *app.AppConfig) {
		cfg.Snapshot.Enabled = true
		cfg.Snapshot.Cron = "0 3 * * *"
	})
	ctx := context.Background()

	_, err := a.SyncService.Push(ctx, &dto.SyncPushRequest{Changes: &dto.SyncChanges{
		Novels: []*dto.NovelDTO{{RecordDTO: dto.RecordDTO{ID: "n1"}, Title: "Draft"}},
	}})
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2026, 1, 1, 2, 58, 0, 0, time.UTC)}
	task, err := NewSnapshotTask(a, clock.Now)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC), task.NextRun())

	clock.Set(time.Date(2026, 1, 1, 2, 59, 0, 0, time.UTC))
	require.NoError(t, task.Run(ctx))
	keys, err := a.SnapshotService.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	clock.Set(time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC))
	require.NoError(t, task.Run(ctx))
	keys, err = a.SnapshotService.List(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 1)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC), task.NextRun())

	// 同一分钟内再次检查不会重复导出
	clock.Set(time.Date(2026, 1, 1, 3, 0, 30, 0, time.UTC))
	require.NoError(t, task.Run(ctx))
	keys, err = a.SnapshotService.List(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestStatsTask_Run(t *testing.T) {
	a := newTestApp(t, nil)

	task := NewStatsTask(a)
	assert.True(t, task.IsStartupRun())
	assert.Equal(t, 5*time.Minute, task.LoopInterval())
	assert.NoError(t, task.Run(context.Background()))
}

func TestManager_RegisterTasks(t *testing.T) {
	a := newTestApp(t, func(cfg *app.AppConfig) {
		cfg.Snapshot.Enabled = true
	})

	m := NewManager(zap.NewNop(), safe_close.NewSafeClose(), a)
	require.NoError(t, m.RegisterTasks())

	names := map[string]bool{}
	for _, task := range m.Scheduler().Tasks() {
		names[task.Name()] = true
	}
	assert.True(t, names["SnapshotExport"])
	assert.True(t, names["StoreStats"])
}

// countingTask 记录执行次数
type countingTask struct {
	runs     atomic.Int32
	interval time.Duration
	startup  bool
	panics   bool
}

func (t *countingTask) Name() string                { return "counting" }
func (t *countingTask) LoopInterval() time.Duration { return t.interval }
func (t *countingTask) IsStartupRun() bool          { return t.startup }
func (t *countingTask) Run(ctx context.Context) error {
	t.runs.Add(1)
	if t.panics {
		panic("task failure")
	}
	return nil
}

func TestScheduler_StopsOnCloseSignal(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(zap.NewNop(), sc)

	loop := &countingTask{interval: 5 * time.Millisecond, startup: true, panics: true}
	once := &countingTask{startup: true}
	s.AddTask(loop)
	s.AddTask(once)
	s.Start()

	require.Eventually(t, func() bool { return loop.runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	sc.SendCloseSignal(nil)
	done := make(chan error, 1)
	go func() { done <- sc.WaitClosed() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, int32(1), once.runs.Load())
}
