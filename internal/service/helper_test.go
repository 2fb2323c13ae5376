package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/haierkeys/novel-sync-service/internal/dao"
	"github.com/haierkeys/novel-sync-service/internal/domain"
	"github.com/haierkeys/novel-sync-service/internal/dto"
	"github.com/haierkeys/novel-sync-service/pkg/timex"
	"github.com/haierkeys/novel-sync-service/pkg/writequeue"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testEnv 基于临时 SQLite 的服务测试环境
type testEnv struct {
	dao   *dao.Dao
	uow   domain.UnitOfWork
	clock *timex.ManualClock
}

func newTestEnv(t *testing.T, startMilli int64) *testEnv {
	t.Helper()
	return newTestEnvWithQueue(t, startMilli, nil)
}

// newTestEnvWithQueue queueCfg 为 nil 时使用写队列默认配置
func newTestEnvWithQueue(t *testing.T, startMilli int64, queueCfg *writequeue.Config) *testEnv {
	t.Helper()

	clock := timex.NewManualClock(startMilli)
	cfg := dao.DatabaseConfig{
		Type:        dao.TypeSQLite,
		Path:        filepath.Join(t.TempDir(), "novel.db"),
		AutoMigrate: true,
	}
	db, err := dao.NewDBEngine(cfg, zap.NewNop())
	require.NoError(t, err)

	wq := writequeue.New(queueCfg, zap.NewNop())
	t.Cleanup(func() {
		_ = wq.Shutdown(context.Background())
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	d := dao.New(db, dao.WithConfig(&cfg), dao.WithWriteQueueManager(wq), dao.WithClock(clock))
	return &testEnv{dao: d, uow: dao.NewUnitOfWork(d), clock: clock}
}

func (e *testEnv) syncService(config *ServiceConfig, notifier SyncNotifier) SyncService {
	return NewSyncService(e.uow, e.clock, notifier, zap.NewNop(), config)
}

func (e *testEnv) storedNovels(t *testing.T) map[string]*domain.Novel {
	t.Helper()
	list, err := e.uow.Stores().Novels.FindUpdatedSince(context.Background(), 0)
	require.NoError(t, err)
	out := make(map[string]*domain.Novel, len(list))
	for _, n := range list {
		out[n.ID] = n
	}
	return out
}

func cursorPtr(v int64) *int64 {
	return &v
}

func novelDTO(id, title string) *dto.NovelDTO {
	return &dto.NovelDTO{RecordDTO: dto.RecordDTO{ID: id}, Title: title}
}

func novelIDs(list []*dto.NovelDTO) []string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		out = append(out, n.ID)
	}
	return out
}

// errStoreFault 模拟存储层故障
var errStoreFault = errors.New("simulated store fault")

// faultUnitOfWork 事务内的章节存储遇到 failID 时返回错误
type faultUnitOfWork struct {
	domain.UnitOfWork
	failID string
}

func (u *faultUnitOfWork) InTx(ctx context.Context, fn func(ctx context.Context, stores domain.SyncStores) error) error {
	return u.UnitOfWork.InTx(ctx, func(ctx context.Context, stores domain.SyncStores) error {
		stores.Chapters = &faultChapterStore{EntityStore: stores.Chapters, failID: u.failID}
		return fn(ctx, stores)
	})
}

func (u *faultUnitOfWork) Stores() domain.SyncStores {
	s := u.UnitOfWork.Stores()
	s.Chapters = &faultChapterStore{EntityStore: s.Chapters, failID: u.failID}
	return s
}

type faultChapterStore struct {
	domain.EntityStore[domain.Chapter]
	failID string
}

func (s *faultChapterStore) UpsertAll(ctx context.Context, records []*domain.Chapter) error {
	for _, r := range records {
		if r.ID == s.failID {
			return errStoreFault
		}
	}
	return s.EntityStore.UpsertAll(ctx, records)
}

func (s *faultChapterStore) FindUpdatedSince(ctx context.Context, since int64) ([]*domain.Chapter, error) {
	if s.failID == "*" {
		return nil, errStoreFault
	}
	return s.EntityStore.FindUpdatedSince(ctx, since)
}

// hookedUnitOfWork 小说查询完成后、其余类型查询之前执行 afterNovels
type hookedUnitOfWork struct {
	domain.UnitOfWork
	afterNovels func()
}

func (u *hookedUnitOfWork) Stores() domain.SyncStores {
	s := u.UnitOfWork.Stores()
	s.Novels = &hookedNovelStore{EntityStore: s.Novels, after: u.afterNovels}
	return s
}

// InSnapshot 快照读同样在小说查询之后执行 afterNovels
func (u *hookedUnitOfWork) InSnapshot(ctx context.Context, fn func(ctx context.Context, stores domain.SyncStores) error) error {
	return u.UnitOfWork.InSnapshot(ctx, func(ctx context.Context, stores domain.SyncStores) error {
		stores.Novels = &hookedNovelStore{EntityStore: stores.Novels, after: u.afterNovels}
		return fn(ctx, stores)
	})
}

type hookedNovelStore struct {
	domain.EntityStore[domain.Novel]
	after func()
}

func (s *hookedNovelStore) FindUpdatedSince(ctx context.Context, since int64) ([]*domain.Novel, error) {
	out, err := s.EntityStore.FindUpdatedSince(ctx, since)
	if s.after != nil {
		s.after()
	}
	return out, err
}

// recordingNotifier 记录收到的同步提示
type recordingNotifier struct {
	mu    sync.Mutex
	hints []dto.SyncHint
}

func (n *recordingNotifier) NotifySync(hint dto.SyncHint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hints = append(n.hints, hint)
}

func (n *recordingNotifier) Hints() []dto.SyncHint {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]dto.SyncHint(nil), n.hints...)
}
