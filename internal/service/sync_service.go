package service

import (
	"context"
	"time"

	"github.com/haierkeys/novel-sync-service/internal/domain"
	"github.com/haierkeys/novel-sync-service/internal/dto"
	"github.com/haierkeys/novel-sync-service/pkg/code"
	"github.com/haierkeys/novel-sync-service/pkg/convert"
	"github.com/haierkeys/novel-sync-service/pkg/logger"
	"github.com/haierkeys/novel-sync-service/pkg/timex"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SyncService 定义同步协调服务接口
type SyncService interface {
	// Push 在单个事务中写入客户端的全部变更，版本号不参与比较
	Push(ctx context.Context, params *dto.SyncPushRequest) (*dto.SyncPushResponse, error)

	// Pull 返回 updatedAt >= lastSyncCursor 的全部记录（含墓碑）及新的游标
	Pull(ctx context.Context, params *dto.SyncPullRequest) (*dto.SyncPullResponse, error)
}

// SyncNotifier 推送成功后接收同步提示
type SyncNotifier interface {
	NotifySync(hint dto.SyncHint)
}

// syncService 实现 SyncService 接口
type syncService struct {
	uow      domain.UnitOfWork
	clock    timex.Clock
	notifier SyncNotifier
	logger   *zap.Logger
	config   *ServiceConfig
}

// NewSyncService 创建 SyncService 实例
// notifier 可以为 nil
func NewSyncService(uow domain.UnitOfWork, clock timex.Clock, notifier SyncNotifier, lg *zap.Logger, config *ServiceConfig) SyncService {
	if clock == nil {
		clock = timex.System
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	if config == nil {
		config = &ServiceConfig{}
	}
	return &syncService{
		uow:      uow,
		clock:    clock,
		notifier: notifier,
		logger:   lg,
		config:   config,
	}
}

// Push 推送本地变更
func (s *syncService) Push(ctx context.Context, params *dto.SyncPushRequest) (*dto.SyncPushResponse, error) {
	start := time.Now()

	if params == nil || params.Changes == nil {
		syncRequests.WithLabelValues("push", "malformed").Inc()
		return nil, code.ErrorSyncMalformedRequest.WithDetails("changes is required")
	}

	changes, err := changesFromDTO(params.Changes)
	if err != nil {
		syncRequests.WithLabelValues("push", "malformed").Inc()
		return nil, code.ErrorSyncMalformedRequest.WithDetails(err.Error())
	}

	err = s.uow.InTx(ctx, func(ctx context.Context, stores domain.SyncStores) error {
		if err := upsertIfAny(ctx, stores.Novels, changes.Novels); err != nil {
			return err
		}
		if err := upsertIfAny(ctx, stores.Volumes, changes.Volumes); err != nil {
			return err
		}
		if err := upsertIfAny(ctx, stores.Chapters, changes.Chapters); err != nil {
			return err
		}
		return upsertIfAny(ctx, stores.Ideas, changes.Ideas)
	})
	if err != nil {
		syncRequests.WithLabelValues("push", "error").Inc()
		s.logger.Error("SyncService.Push failed",
			zap.String(logger.FieldAction, "push"),
			zap.Int(logger.FieldCount, changes.Len()),
			zap.Error(err))
		return nil, code.ErrorSyncStoreFailure.WithDetails(err.Error())
	}

	processed := changes.Len()

	syncRequests.WithLabelValues("push", "ok").Inc()
	syncDuration.WithLabelValues("push").Observe(time.Since(start).Seconds())
	for kind, n := range changes.CountByKind() {
		syncRecords.WithLabelValues("push", string(kind)).Add(float64(n))
	}

	s.logger.Debug("SyncService.Push",
		zap.String(logger.FieldAction, "push"),
		zap.Int(logger.FieldCount, processed))

	if s.notifier != nil && s.config.Sync.HintEnabled && processed > 0 {
		s.notifier.NotifySync(dto.SyncHint{
			Cursor:         timex.NowMilli(s.clock),
			ProcessedCount: processed,
		})
	}

	return &dto.SyncPushResponse{Success: true, ProcessedCount: processed}, nil
}

// Pull 拉取远端变更
// 每个类型独立查询，全部查询完成后才读取时钟作为新游标
func (s *syncService) Pull(ctx context.Context, params *dto.SyncPullRequest) (*dto.SyncPullResponse, error) {
	start := time.Now()

	var since int64
	if params != nil && params.LastSyncCursor != nil {
		since = *params.LastSyncCursor
	}
	if since < 0 {
		syncRequests.WithLabelValues("pull", "malformed").Inc()
		return nil, code.ErrorSyncMalformedRequest.WithDetails("lastSyncCursor must not be negative")
	}

	var changes domain.Changes
	read := func(ctx context.Context, stores domain.SyncStores) error {
		var err error
		if changes.Novels, err = stores.Novels.FindUpdatedSince(ctx, since); err != nil {
			return err
		}
		if changes.Volumes, err = stores.Volumes.FindUpdatedSince(ctx, since); err != nil {
			return err
		}
		if changes.Chapters, err = stores.Chapters.FindUpdatedSince(ctx, since); err != nil {
			return err
		}
		changes.Ideas, err = stores.Ideas.FindUpdatedSince(ctx, since)
		return err
	}

	var err error
	if s.config.Sync.SnapshotPull {
		err = s.uow.InSnapshot(ctx, read)
	} else {
		err = read(ctx, s.uow.Stores())
	}
	if err != nil {
		syncRequests.WithLabelValues("pull", "error").Inc()
		s.logger.Error("SyncService.Pull failed",
			zap.String(logger.FieldAction, "pull"),
			zap.Int64(logger.FieldCursor, since),
			zap.Error(err))
		return nil, code.ErrorSyncStoreFailure.WithDetails(err.Error())
	}

	// 游标在全部查询之后读取
	cursor := timex.NowMilli(s.clock)

	data, err := changesToDTO(&changes)
	if err != nil {
		syncRequests.WithLabelValues("pull", "error").Inc()
		return nil, code.ErrorSyncStoreFailure.WithDetails(err.Error())
	}

	syncRequests.WithLabelValues("pull", "ok").Inc()
	syncDuration.WithLabelValues("pull").Observe(time.Since(start).Seconds())
	for kind, n := range changes.CountByKind() {
		syncRecords.WithLabelValues("pull", string(kind)).Add(float64(n))
	}

	s.logger.Debug("SyncService.Pull",
		zap.String(logger.FieldAction, "pull"),
		zap.Int64(logger.FieldCursor, since),
		zap.Int64("newSyncCursor", cursor),
		zap.Int(logger.FieldCount, changes.Len()))

	return &dto.SyncPullResponse{NewSyncCursor: cursor, Data: *data}, nil
}

func upsertIfAny[T any](ctx context.Context, store domain.EntityStore[T], list []*T) error {
	if len(list) == 0 {
		return nil
	}
	return store.UpsertAll(ctx, list)
}

// changesFromDTO 将请求中的变更转换为领域模型，列表中不允许出现 null
func changesFromDTO(in *dto.SyncChanges) (*domain.Changes, error) {
	var (
		out domain.Changes
		err error
	)
	if out.Novels, err = convertList[domain.Novel](in.Novels, "novels"); err != nil {
		return nil, err
	}
	if out.Volumes, err = convertList[domain.Volume](in.Volumes, "volumes"); err != nil {
		return nil, err
	}
	if out.Chapters, err = convertList[domain.Chapter](in.Chapters, "chapters"); err != nil {
		return nil, err
	}
	if out.Ideas, err = convertList[domain.Idea](in.Ideas, "ideas"); err != nil {
		return nil, err
	}
	return &out, nil
}

// changesToDTO 转换为响应结构，空列表输出为 []
func changesToDTO(in *domain.Changes) (*dto.SyncChanges, error) {
	var (
		out dto.SyncChanges
		err error
	)
	if out.Novels, err = convertList[dto.NovelDTO](in.Novels, "novels"); err != nil {
		return nil, err
	}
	if out.Volumes, err = convertList[dto.VolumeDTO](in.Volumes, "volumes"); err != nil {
		return nil, err
	}
	if out.Chapters, err = convertList[dto.ChapterDTO](in.Chapters, "chapters"); err != nil {
		return nil, err
	}
	if out.Ideas, err = convertList[dto.IdeaDTO](in.Ideas, "ideas"); err != nil {
		return nil, err
	}
	return &out, nil
}

func convertList[D any, S any](src []*S, field string) ([]*D, error) {
	out := make([]*D, 0, len(src))
	for i, item := range src {
		if item == nil {
			return nil, errors.Errorf("%s[%d] is null", field, i)
		}
		d, err := convert.To[D](item)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// 确保 syncService 实现了 SyncService 接口
var _ SyncService = (*syncService)(nil)
