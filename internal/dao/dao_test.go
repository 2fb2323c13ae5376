package dao

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/haierkeys/novel-sync-service/internal/domain"
	"github.com/haierkeys/novel-sync-service/pkg/timex"
	"github.com/haierkeys/novel-sync-service/pkg/writequeue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestDao 创建基于临时 SQLite 文件的 Dao
func newTestDao(t *testing.T, clock timex.Clock) *Dao {
	t.Helper()

	cfg := DatabaseConfig{
		Type:        TypeSQLite,
		Path:        filepath.Join(t.TempDir(), "db", "novel.db"),
		AutoMigrate: true,
	}
	db, err := NewDBEngine(cfg, zap.NewNop())
	require.NoError(t, err)

	wq := writequeue.New(nil, zap.NewNop())
	t.Cleanup(func() {
		_ = wq.Shutdown(context.Background())
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return New(db, WithConfig(&cfg), WithWriteQueueManager(wq), WithClock(clock))
}

func TestUpsertAll_CreateAssignsIdentity(t *testing.T) {
	clock := timex.NewManualClock(1_000)
	d := newTestDao(t, clock)
	store := NewNovelRepository(d)
	ctx := context.Background()

	// 准备测试数据：一条无 ID，一条客户端自带 ID
	noID := &domain.Novel{Title: "无名"}
	withID := &domain.Novel{Record: domain.Record{ID: "n-1", Version: 42, UpdatedAt: 7}, Title: "first"}

	err := store.UpsertAll(ctx, []*domain.Novel{noID, withID})
	require.NoError(t, err)

	assert.NotEmpty(t, noID.ID)
	assert.Equal(t, int64(1), noID.Version)
	assert.Equal(t, int64(1_000), noID.UpdatedAt)

	assert.Equal(t, "n-1", withID.ID)
	assert.Equal(t, int64(1), withID.Version, "client version is ignored on create")
	assert.Equal(t, int64(1_000), withID.UpdatedAt)
}

func TestUpsertAll_OverwriteIncrementsVersion(t *testing.T) {
	clock := timex.NewManualClock(1_000)
	d := newTestDao(t, clock)
	store := NewChapterRepository(d)
	ctx := context.Background()

	require.NoError(t, store.UpsertAll(ctx, []*domain.Chapter{
		{Record: domain.Record{ID: "c-1"}, Title: "v1", Content: "hello"},
	}))

	clock.Advance(time.Second)

	// 客户端带一个过期的 version，依然无条件覆盖
	stale := &domain.Chapter{Record: domain.Record{ID: "c-1", Version: 0}, Title: "v2", Content: "world"}
	require.NoError(t, store.UpsertAll(ctx, []*domain.Chapter{stale}))

	assert.Equal(t, int64(2), stale.Version)
	assert.Equal(t, int64(2_000), stale.UpdatedAt)

	list, err := store.FindUpdatedSince(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "v2", list[0].Title)
	assert.Equal(t, "world", list[0].Content)
	assert.Equal(t, int64(2), list[0].Version)
}

func TestUpsertAll_UpdatedAtNeverGoesBackwards(t *testing.T) {
	clock := timex.NewManualClock(5_000)
	d := newTestDao(t, clock)
	store := NewVolumeRepository(d)
	ctx := context.Background()

	require.NoError(t, store.UpsertAll(ctx, []*domain.Volume{{Record: domain.Record{ID: "v-1"}, Title: "a"}}))

	// 时钟回拨
	clock.Set(3_000)

	v := &domain.Volume{Record: domain.Record{ID: "v-1"}, Title: "b"}
	require.NoError(t, store.UpsertAll(ctx, []*domain.Volume{v}))

	assert.Equal(t, int64(5_000), v.UpdatedAt)
	assert.Equal(t, int64(2), v.Version)
}

func TestUpsertAll_DuplicateIDInOneBatch(t *testing.T) {
	d := newTestDao(t, timex.NewManualClock(1_000))
	store := NewVolumeRepository(d)
	ctx := context.Background()

	first := &domain.Volume{Record: domain.Record{ID: "dup"}, Title: "first"}
	second := &domain.Volume{Record: domain.Record{ID: "dup"}, Title: "second"}
	require.NoError(t, store.UpsertAll(ctx, []*domain.Volume{first, second}))

	assert.Equal(t, int64(1), first.Version)
	assert.Equal(t, int64(2), second.Version)

	list, err := store.FindUpdatedSince(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "second", list[0].Title)
}

// 无写队列时（MySQL/Postgres 的路径）插入冲突后加锁读取旧值再覆盖
func TestUpsertAll_WithoutWriteQueueResolvesConflict(t *testing.T) {
	clock := timex.NewManualClock(1_000)
	d := newTestDao(t, clock)
	direct := New(d.db, WithConfig(d.config), WithClock(clock))
	require.False(t, direct.serializedWrites())

	queued := NewIdeaRepository(d)
	store := NewIdeaRepository(direct)
	ctx := context.Background()

	// 行由另一条路径先行写入，本路径不预读，直接走插入冲突分支
	require.NoError(t, queued.UpsertAll(ctx, []*domain.Idea{{Record: domain.Record{ID: "i-1"}, Content: "a"}}))
	created, err := queued.FindUpdatedSince(ctx, 0)
	require.NoError(t, err)
	require.Len(t, created, 1)

	clock.Advance(time.Second)

	again := &domain.Idea{Record: domain.Record{ID: "i-1"}, Content: "b", CreatedAt: 9}
	fresh := &domain.Idea{Record: domain.Record{ID: "i-2"}, Content: "c"}
	dup := &domain.Idea{Record: domain.Record{ID: "i-2"}, Content: "d"}
	require.NoError(t, store.UpsertAll(ctx, []*domain.Idea{again, fresh, dup}))

	assert.Equal(t, int64(2), again.Version)
	assert.Equal(t, int64(2_000), again.UpdatedAt)
	assert.Equal(t, created[0].CreatedAt, again.CreatedAt)
	assert.Equal(t, int64(1), fresh.Version)
	assert.Equal(t, int64(2), dup.Version)

	list, err := store.FindUpdatedSince(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	byID := map[string]*domain.Idea{list[0].ID: list[0], list[1].ID: list[1]}
	assert.Equal(t, "b", byID["i-1"].Content)
	assert.Equal(t, "d", byID["i-2"].Content)
}

func TestUpsertAll_NilRecord(t *testing.T) {
	d := newTestDao(t, timex.NewManualClock(1_000))
	err := NewNovelRepository(d).UpsertAll(context.Background(), []*domain.Novel{nil})
	assert.Error(t, err)
}

func TestUpsertAll_IdeaCreatedAtImmutable(t *testing.T) {
	clock := timex.NewManualClock(1_000)
	d := newTestDao(t, clock)
	store := NewIdeaRepository(d)
	ctx := context.Background()

	idea := &domain.Idea{Record: domain.Record{ID: "i-1"}, NovelID: "n-1", Content: "plot twist"}
	require.NoError(t, store.UpsertAll(ctx, []*domain.Idea{idea}))
	assert.Equal(t, int64(1_000), idea.CreatedAt)

	clock.Advance(time.Minute)

	edit := &domain.Idea{Record: domain.Record{ID: "i-1"}, NovelID: "n-1", Content: "better twist", CreatedAt: 1}
	require.NoError(t, store.UpsertAll(ctx, []*domain.Idea{edit}))

	assert.Equal(t, int64(1_000), edit.CreatedAt)
	assert.Equal(t, int64(61_000), edit.UpdatedAt)
}

func TestFindUpdatedSince_InclusiveAndTombstones(t *testing.T) {
	clock := timex.NewManualClock(1_000)
	d := newTestDao(t, clock)
	store := NewNovelRepository(d)
	ctx := context.Background()

	require.NoError(t, store.UpsertAll(ctx, []*domain.Novel{{Record: domain.Record{ID: "old"}}}))
	clock.Set(2_000)
	require.NoError(t, store.UpsertAll(ctx, []*domain.Novel{{Record: domain.Record{ID: "edge"}}}))
	clock.Set(3_000)
	require.NoError(t, store.UpsertAll(ctx, []*domain.Novel{{Record: domain.Record{ID: "gone", Deleted: true}}}))

	list, err := store.FindUpdatedSince(ctx, 2_000)
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, n := range list {
		ids[n.ID] = n.Deleted
	}
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, "edge", "lower bound is inclusive")
	assert.True(t, ids["gone"], "tombstones are returned")
	assert.NotContains(t, ids, "old")

	// 大于全部记录的游标返回空
	list, err = store.FindUpdatedSince(ctx, 3_001)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUnitOfWork_InTxRollback(t *testing.T) {
	d := newTestDao(t, timex.NewManualClock(1_000))
	uow := NewUnitOfWork(d)
	ctx := context.Background()

	boom := errors.New("boom")
	err := uow.InTx(ctx, func(ctx context.Context, s domain.SyncStores) error {
		if err := s.Novels.UpsertAll(ctx, []*domain.Novel{{Record: domain.Record{ID: "n"}}}); err != nil {
			return err
		}
		if err := s.Volumes.UpsertAll(ctx, []*domain.Volume{{Record: domain.Record{ID: "v"}}}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// 断言事务内的写入全部回滚
	novels, err := uow.Stores().Novels.FindUpdatedSince(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, novels)

	volumes, err := uow.Stores().Volumes.FindUpdatedSince(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, volumes)
}

func TestUnitOfWork_InSnapshotReads(t *testing.T) {
	d := newTestDao(t, timex.NewManualClock(1_000))
	uow := NewUnitOfWork(d)
	ctx := context.Background()

	require.NoError(t, uow.Stores().Ideas.UpsertAll(ctx, []*domain.Idea{{NovelID: "n", Content: "x"}}))

	var got []*domain.Idea
	err := uow.InSnapshot(ctx, func(ctx context.Context, s domain.SyncStores) error {
		var err error
		got, err = s.Ideas.FindUpdatedSince(ctx, 0)
		return err
	})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestUserRepository(t *testing.T) {
	d := newTestDao(t, timex.NewManualClock(1_000))
	repo := NewUserRepository(d)
	ctx := context.Background()

	alice := &domain.User{Username: "alice", PasswordHash: "hash"}
	ghost := &domain.User{Username: "ghost", Record: domain.Record{Deleted: true}}
	require.NoError(t, repo.UpsertAll(ctx, []*domain.User{alice, ghost}))

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	got, err = repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = repo.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// 用户名唯一
	err = repo.UpsertAll(ctx, []*domain.User{{Username: "alice", PasswordHash: "other"}})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestStatsRepository_CountRecords(t *testing.T) {
	d := newTestDao(t, timex.NewManualClock(1_000))
	ctx := context.Background()

	require.NoError(t, NewChapterRepository(d).UpsertAll(ctx, []*domain.Chapter{
		{Title: "a"},
		{Title: "b"},
		{Title: "c", Record: domain.Record{Deleted: true}},
	}))

	stats := NewStatsRepository(d)
	require.NoError(t, stats.Ping(ctx))

	counts, err := stats.CountRecords(ctx)
	require.NoError(t, err)

	byKind := map[domain.EntityKind]domain.RecordCount{}
	for _, c := range counts {
		byKind[c.Kind] = c
	}
	assert.Equal(t, int64(2), byKind[domain.KindChapter].Live)
	assert.Equal(t, int64(1), byKind[domain.KindChapter].Tombstones)
	assert.Equal(t, int64(0), byKind[domain.KindNovel].Live)
	assert.Contains(t, byKind, domain.KindUser)
}
