package dao

import (
	"context"
	"database/sql"

	"github.com/haierkeys/novel-sync-service/internal/domain"
	"github.com/haierkeys/novel-sync-service/internal/model"

	"gorm.io/gorm"
)

type (
	novelRepository   = entityRepository[domain.Novel, model.Novel, *model.Novel]
	volumeRepository  = entityRepository[domain.Volume, model.Volume, *model.Volume]
	chapterRepository = entityRepository[domain.Chapter, model.Chapter, *model.Chapter]
	ideaRepository    = entityRepository[domain.Idea, model.Idea, *model.Idea]
)

// NewNovelRepository 创建小说仓储
func NewNovelRepository(d *Dao) domain.EntityStore[domain.Novel] {
	return newEntityRepository[domain.Novel, model.Novel, *model.Novel](d, domain.KindNovel)
}

// NewVolumeRepository 创建卷仓储
func NewVolumeRepository(d *Dao) domain.EntityStore[domain.Volume] {
	return newEntityRepository[domain.Volume, model.Volume, *model.Volume](d, domain.KindVolume)
}

// NewChapterRepository 创建章节仓储
func NewChapterRepository(d *Dao) domain.EntityStore[domain.Chapter] {
	return newEntityRepository[domain.Chapter, model.Chapter, *model.Chapter](d, domain.KindChapter)
}

// NewIdeaRepository 创建灵感仓储
func NewIdeaRepository(d *Dao) domain.EntityStore[domain.Idea] {
	return newEntityRepository[domain.Idea, model.Idea, *model.Idea](d, domain.KindIdea)
}

// unitOfWork 基于 gorm 事务的 UnitOfWork 实现
type unitOfWork struct {
	dao      *Dao
	novels   *novelRepository
	volumes  *volumeRepository
	chapters *chapterRepository
	ideas    *ideaRepository
}

// NewUnitOfWork 创建 UnitOfWork
func NewUnitOfWork(d *Dao) domain.UnitOfWork {
	return &unitOfWork{
		dao:      d,
		novels:   newEntityRepository[domain.Novel, model.Novel, *model.Novel](d, domain.KindNovel),
		volumes:  newEntityRepository[domain.Volume, model.Volume, *model.Volume](d, domain.KindVolume),
		chapters: newEntityRepository[domain.Chapter, model.Chapter, *model.Chapter](d, domain.KindChapter),
		ideas:    newEntityRepository[domain.Idea, model.Idea, *model.Idea](d, domain.KindIdea),
	}
}

// Stores 返回绑定到基础连接的存储
func (u *unitOfWork) Stores() domain.SyncStores {
	return domain.SyncStores{
		Novels:   u.novels,
		Volumes:  u.volumes,
		Chapters: u.chapters,
		Ideas:    u.ideas,
	}
}

func (u *unitOfWork) storesFor(tx *gorm.DB) domain.SyncStores {
	return domain.SyncStores{
		Novels:   u.novels.withDB(tx),
		Volumes:  u.volumes.withDB(tx),
		Chapters: u.chapters.withDB(tx),
		Ideas:    u.ideas.withDB(tx),
	}
}

// InTx 在单个写事务中执行 fn
func (u *unitOfWork) InTx(ctx context.Context, fn func(ctx context.Context, stores domain.SyncStores) error) error {
	return u.dao.ExecuteWrite(ctx, func(ctx context.Context) error {
		return u.dao.DB(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(ctx, u.storesFor(tx))
		})
	})
}

// InSnapshot 在单个只读快照事务中执行 fn
func (u *unitOfWork) InSnapshot(ctx context.Context, fn func(ctx context.Context, stores domain.SyncStores) error) error {
	var opts []*sql.TxOptions
	if o := u.dao.snapshotTxOptions(); o != nil {
		opts = append(opts, o)
	}
	return u.dao.DB(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, u.storesFor(tx))
	}, opts...)
}
