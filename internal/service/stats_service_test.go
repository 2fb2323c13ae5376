package service

import (
	"context"
	"testing"
	"time"

	"github.com/haierkeys/novel-sync-service/internal/dao"
	"github.com/haierkeys/novel-sync-service/internal/domain"
	"github.com/haierkeys/novel-sync-service/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsService_Refresh(t *testing.T) {
	env := newTestEnv(t, 1_000)
	ctx := context.Background()

	_, err := env.syncService(nil, nil).Push(ctx, &dto.SyncPushRequest{Changes: &dto.SyncChanges{
		Chapters: []*dto.ChapterDTO{
			{RecordDTO: dto.RecordDTO{ID: "c1"}},
			{RecordDTO: dto.RecordDTO{ID: "c2", Deleted: true}},
		},
	}})
	require.NoError(t, err)

	svc := NewStatsService(dao.NewStatsRepository(env.dao), time.Now(), "test", nil)
	counts, err := svc.Refresh(ctx)
	require.NoError(t, err)

	byKind := map[domain.EntityKind]domain.RecordCount{}
	for _, c := range counts {
		byKind[c.Kind] = c
	}
	assert.Equal(t, int64(1), byKind[domain.KindChapter].Live)
	assert.Equal(t, int64(1), byKind[domain.KindChapter].Tombstones)
	assert.Equal(t, int64(0), byKind[domain.KindNovel].Live)
}

func TestStatsService_Health(t *testing.T) {
	env := newTestEnv(t, 1_000)

	svc := NewStatsService(dao.NewStatsRepository(env.dao), time.Now().Add(-time.Minute), "1.2.3", nil)
	health, err := svc.Health(context.Background())
	require.NoError(t, err)

	assert.Equal(t, HealthStatusOK, health.Status)
	assert.Equal(t, "connected", health.Database)
	assert.Equal(t, "1.2.3", health.Version)
	assert.Len(t, health.Records, 5)
	assert.NotEmpty(t, health.Uptime)
}

type downStatsRepository struct{}

func (downStatsRepository) CountRecords(context.Context) ([]domain.RecordCount, error) {
	return nil, errStoreFault
}

func (downStatsRepository) Ping(context.Context) error {
	return errStoreFault
}

func TestStatsService_HealthDegraded(t *testing.T) {
	svc := NewStatsService(downStatsRepository{}, time.Now(), "1.2.3", nil)
	health, err := svc.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, HealthStatusDegraded, health.Status)
	assert.Empty(t, health.Records)
}
