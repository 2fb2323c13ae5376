package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/haierkeys/novel-sync-service/internal/domain"
	"github.com/haierkeys/novel-sync-service/internal/dto"
	"github.com/haierkeys/novel-sync-service/pkg/code"
	"github.com/haierkeys/novel-sync-service/pkg/logger"
	"github.com/haierkeys/novel-sync-service/pkg/storage"
	"github.com/haierkeys/novel-sync-service/pkg/timex"

	"github.com/bytedance/sonic"
	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SnapshotPrefix 快照对象的路径前缀
const SnapshotPrefix = "snapshots/"

// Snapshot 全量导出内容，包含墓碑
type Snapshot struct {
	CreatedAt int64           `json:"createdAt"`
	Cursor    int64           `json:"cursor"`
	Data      dto.SyncChanges `json:"data"`
}

// SnapshotService 定义快照服务接口
type SnapshotService interface {
	// Export 导出全部记录到存储，并按保留数量清理旧快照
	Export(ctx context.Context) (*dto.SnapshotDTO, error)

	// List 列出存储中的快照，按时间从旧到新
	List(ctx context.Context) ([]string, error)

	// Load 读取并解码指定快照
	Load(ctx context.Context, key string) (*Snapshot, error)
}

// snapshotService 实现 SnapshotService 接口
type snapshotService struct {
	uow     domain.UnitOfWork
	storage storage.Storager
	clock   timex.Clock
	logger  *zap.Logger
	config  *ServiceConfig
}

// NewSnapshotService 创建 SnapshotService 实例
func NewSnapshotService(uow domain.UnitOfWork, st storage.Storager, clock timex.Clock, lg *zap.Logger, config *ServiceConfig) SnapshotService {
	if clock == nil {
		clock = timex.System
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	if config == nil {
		config = &ServiceConfig{}
	}
	return &snapshotService{
		uow:     uow,
		storage: st,
		clock:   clock,
		logger:  lg,
		config:  config,
	}
}

// SnapshotKey 快照对象路径，游标补零保证字典序即时间序
func SnapshotKey(cursor int64) string {
	return fmt.Sprintf("%ssnapshot-%013d.json.sz", SnapshotPrefix, cursor)
}

// EncodeSnapshot sonic 编码后 snappy 压缩
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	raw, err := sonic.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "encode snapshot")
	}
	return snappy.Encode(nil, raw), nil
}

// DecodeSnapshot EncodeSnapshot 的逆操作
func DecodeSnapshot(blob []byte) (*Snapshot, error) {
	raw, err := snappy.Decode(nil, blob)
	if err != nil {
		return nil, errors.Wrap(err, "decompress snapshot")
	}
	var s Snapshot
	if err := sonic.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrap(err, "decode snapshot")
	}
	return &s, nil
}

// Export 导出快照
func (s *snapshotService) Export(ctx context.Context) (*dto.SnapshotDTO, error) {
	if s.storage == nil {
		return nil, code.ErrorSnapshotFailed.WithDetails("storage is not configured")
	}

	var changes domain.Changes
	err := s.uow.InSnapshot(ctx, func(ctx context.Context, stores domain.SyncStores) error {
		var err error
		if changes.Novels, err = stores.Novels.FindUpdatedSince(ctx, 0); err != nil {
			return err
		}
		if changes.Volumes, err = stores.Volumes.FindUpdatedSince(ctx, 0); err != nil {
			return err
		}
		if changes.Chapters, err = stores.Chapters.FindUpdatedSince(ctx, 0); err != nil {
			return err
		}
		changes.Ideas, err = stores.Ideas.FindUpdatedSince(ctx, 0)
		return err
	})
	if err != nil {
		snapshotExports.WithLabelValues("error").Inc()
		return nil, code.ErrorSnapshotFailed.WithDetails(err.Error())
	}

	cursor := timex.NowMilli(s.clock)

	data, err := changesToDTO(&changes)
	if err != nil {
		snapshotExports.WithLabelValues("error").Inc()
		return nil, code.ErrorSnapshotFailed.WithDetails(err.Error())
	}

	blob, err := EncodeSnapshot(&Snapshot{CreatedAt: cursor, Cursor: cursor, Data: *data})
	if err != nil {
		snapshotExports.WithLabelValues("error").Inc()
		return nil, code.ErrorSnapshotFailed.WithDetails(err.Error())
	}

	key := SnapshotKey(cursor)
	if _, err := s.storage.SendContent(ctx, key, blob); err != nil {
		snapshotExports.WithLabelValues("error").Inc()
		s.logger.Error("SnapshotService.Export send failed", zap.String(logger.FieldPath, key), zap.Error(err))
		return nil, code.ErrorSnapshotFailed.WithDetails(err.Error())
	}

	snapshotExports.WithLabelValues("ok").Inc()
	s.logger.Info("snapshot exported",
		zap.String(logger.FieldPath, key),
		zap.Int64(logger.FieldCursor, cursor),
		zap.Int(logger.FieldCount, changes.Len()),
		zap.Int(logger.FieldSize, len(blob)))

	// 清理失败只记录日志，不影响本次导出
	if err := s.prune(ctx); err != nil {
		s.logger.Warn("snapshot prune failed", zap.Error(err))
	}

	return &dto.SnapshotDTO{
		Path:    key,
		Cursor:  cursor,
		Records: changes.Len(),
		Size:    len(blob),
	}, nil
}

// List 列出快照
func (s *snapshotService) List(ctx context.Context) ([]string, error) {
	if s.storage == nil {
		return nil, code.ErrorSnapshotFailed.WithDetails("storage is not configured")
	}
	keys, err := s.storage.List(ctx, SnapshotPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "list snapshots")
	}
	out := keys[:0]
	for _, k := range keys {
		if strings.HasSuffix(k, ".json.sz") {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Load 读取快照
func (s *snapshotService) Load(ctx context.Context, key string) (*Snapshot, error) {
	if s.storage == nil {
		return nil, code.ErrorSnapshotFailed.WithDetails("storage is not configured")
	}
	blob, err := s.storage.GetContent(ctx, key)
	if err != nil {
		return nil, code.ErrorSnapshotNotFound.WithDetails(err.Error())
	}
	return DecodeSnapshot(blob)
}

// prune 删除超出保留数量的旧快照
func (s *snapshotService) prune(ctx context.Context) error {
	retain := s.config.Snapshot.Retain
	if retain <= 0 {
		return nil
	}
	keys, err := s.List(ctx)
	if err != nil {
		return err
	}
	if len(keys) <= retain {
		return nil
	}
	for _, k := range keys[:len(keys)-retain] {
		if err := s.storage.Delete(ctx, k); err != nil {
			return errors.Wrapf(err, "delete %s", k)
		}
	}
	return nil
}

// 确保 snapshotService 实现了 SnapshotService 接口
var _ SnapshotService = (*snapshotService)(nil)
