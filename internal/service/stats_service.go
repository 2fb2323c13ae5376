package service

import (
	"context"
	"os"
	"time"

	"github.com/haierkeys/novel-sync-service/internal/domain"
	"github.com/haierkeys/novel-sync-service/internal/dto"

	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	HealthStatusOK       = "ok"
	HealthStatusDegraded = "degraded"
)

// StatsService 存储统计与健康检查
type StatsService interface {
	// Refresh 重新统计各类型记录数并更新指标
	Refresh(ctx context.Context) ([]domain.RecordCount, error)

	// Health 健康检查
	Health(ctx context.Context) (*dto.HealthDTO, error)
}

type statsService struct {
	repo      domain.StatsRepository
	startTime time.Time
	version   string
	logger    *zap.Logger
	sf        singleflight.Group
}

// NewStatsService 创建 StatsService 实例
func NewStatsService(repo domain.StatsRepository, startTime time.Time, version string, lg *zap.Logger) StatsService {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &statsService{
		repo:      repo,
		startTime: startTime,
		version:   version,
		logger:    lg,
	}
}

// Refresh 并发调用合并为一次查询
func (s *statsService) Refresh(ctx context.Context) ([]domain.RecordCount, error) {
	v, err, _ := s.sf.Do("refresh", func() (any, error) {
		counts, err := s.repo.CountRecords(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range counts {
			storeRecords.WithLabelValues(string(c.Kind), "live").Set(float64(c.Live))
			storeRecords.WithLabelValues(string(c.Kind), "tombstone").Set(float64(c.Tombstones))
		}
		return counts, nil
	})
	if err != nil {
		s.logger.Warn("StatsService.Refresh failed", zap.Error(err))
		return nil, err
	}
	return v.([]domain.RecordCount), nil
}

// Health 数据库不可用时返回 degraded，不返回错误
func (s *statsService) Health(ctx context.Context) (*dto.HealthDTO, error) {
	out := &dto.HealthDTO{
		Status:   HealthStatusOK,
		Database: "connected",
		Uptime:   time.Since(s.startTime).Round(time.Second).String(),
		Version:  s.version,
		Records:  []dto.RecordCountDTO{},
	}

	if err := s.repo.Ping(ctx); err != nil {
		out.Status = HealthStatusDegraded
		out.Database = "disconnected: " + err.Error()
	} else if counts, err := s.Refresh(ctx); err == nil {
		for _, c := range counts {
			out.Records = append(out.Records, dto.RecordCountDTO{
				Kind:       string(c.Kind),
				Live:       c.Live,
				Tombstones: c.Tombstones,
			})
		}
	}

	// Process
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfo(); err == nil && mi != nil {
			out.MemoryRSS = mi.RSS
		}
		out.CPU, _ = p.CPUPercent()
	}

	return out, nil
}

var _ StatsService = (*statsService)(nil)
