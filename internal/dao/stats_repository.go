package dao

import (
	"context"

	"github.com/haierkeys/novel-sync-service/internal/domain"
	"github.com/haierkeys/novel-sync-service/internal/model"

	"github.com/pkg/errors"
)

// statsRepository 记录统计仓储实现
type statsRepository struct {
	dao *Dao
}

// NewStatsRepository 创建 StatsRepository 实例
func NewStatsRepository(d *Dao) domain.StatsRepository {
	return &statsRepository{dao: d}
}

// countTargets 统计的实体类型与对应模型
var countTargets = []struct {
	kind  domain.EntityKind
	model any
}{
	{domain.KindNovel, &model.Novel{}},
	{domain.KindVolume, &model.Volume{}},
	{domain.KindChapter, &model.Chapter{}},
	{domain.KindIdea, &model.Idea{}},
	{domain.KindUser, &model.User{}},
}

// CountRecords 按实体类型统计有效记录与墓碑数量
func (r *statsRepository) CountRecords(ctx context.Context) ([]domain.RecordCount, error) {
	out := make([]domain.RecordCount, 0, len(countTargets))
	for _, t := range countTargets {
		var rows []struct {
			Deleted bool
			Total   int64
		}
		err := r.dao.DB(ctx).Model(t.model).
			Select("deleted, COUNT(*) AS total").
			Group("deleted").
			Scan(&rows).Error
		if err != nil {
			return nil, errors.Wrapf(err, "%s: count records", t.kind)
		}

		rc := domain.RecordCount{Kind: t.kind}
		for _, row := range rows {
			if row.Deleted {
				rc.Tombstones += row.Total
			} else {
				rc.Live += row.Total
			}
		}
		out = append(out, rc)
	}
	return out, nil
}

// Ping 检查数据库连通性
func (r *statsRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.dao.db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql.DB")
	}
	return sqlDB.PingContext(ctx)
}
