package dao

import (
	"context"

	"github.com/haierkeys/novel-sync-service/internal/domain"
	"github.com/haierkeys/novel-sync-service/internal/model"
	"github.com/haierkeys/novel-sync-service/pkg/convert"
	"github.com/haierkeys/novel-sync-service/pkg/timex"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lookupChunkSize IN 查询每批最多的 ID 数量
const lookupChunkSize = 500

// entityRepository 通用的版本化实体仓储
// T 为领域类型，M 为数据库模型
type entityRepository[T any, M any, PM interface {
	*M
	model.Versioned
}] struct {
	dao  *Dao
	db   *gorm.DB // 非 nil 时绑定到事务
	kind domain.EntityKind
}

func newEntityRepository[T any, M any, PM interface {
	*M
	model.Versioned
}](d *Dao, kind domain.EntityKind) *entityRepository[T, M, PM] {
	return &entityRepository[T, M, PM]{dao: d, kind: kind}
}

// withDB 返回绑定到指定连接（通常是事务）的副本
func (r *entityRepository[T, M, PM]) withDB(db *gorm.DB) *entityRepository[T, M, PM] {
	return &entityRepository[T, M, PM]{dao: r.dao, db: db, kind: r.kind}
}

func (r *entityRepository[T, M, PM]) conn(ctx context.Context) *gorm.DB {
	if r.db != nil {
		return r.db.WithContext(ctx)
	}
	return r.dao.DB(ctx)
}

// UpsertAll 按 ID 创建或无条件覆盖记录
// 新记录 version=1；已有记录 version=旧值+1，客户端携带的 version 不参与比较
// updatedAt 取当前时钟与旧值中较大者，保证单条记录内不回退
//
// 写事务未经写队列串行化时（MySQL/Postgres），先以 ON CONFLICT DO NOTHING 插入，
// 冲突后再 SELECT ... FOR UPDATE 读取旧值，并发推送同一 ID 时依次递增版本
func (r *entityRepository[T, M, PM]) UpsertAll(ctx context.Context, records []*T) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]PM, len(records))
	ids := make([]string, 0, len(records))
	for i, rec := range records {
		if rec == nil {
			return errors.Errorf("%s: nil record at index %d", r.kind, i)
		}
		row := PM(new(M))
		if err := convert.StructAssign(rec, row); err != nil {
			return errors.Wrapf(err, "%s: convert record", r.kind)
		}
		rows[i] = row
		if id := row.Meta().ID; id != "" {
			ids = append(ids, id)
		}
	}

	db := r.conn(ctx)
	serialized := r.dao.serializedWrites()

	existing := make(map[string]PM, len(ids))
	if serialized {
		var err error
		if existing, err = r.loadByIDs(db, ids); err != nil {
			return err
		}
	}

	now := timex.NowMilli(r.dao.clock)

	for i, row := range rows {
		meta := row.Meta()

		prev, ok := existing[meta.ID]
		if !ok {
			if meta.ID == "" {
				meta.ID = uuid.NewString()
			}
			created, err := r.create(db, row, now, !serialized)
			if err != nil {
				return err
			}
			if !created {
				if prev, err = r.lockByID(db, meta.ID); err != nil {
					return err
				}
				ok = true
			}
		}

		if ok {
			prevMeta := prev.Meta()
			meta.Version = prevMeta.Version + 1
			meta.UpdatedAt = max(now, prevMeta.UpdatedAt)

			// 创建时间不可变
			if cs, isStamper := any(row).(model.CreatedStamper); isStamper {
				cs.SetCreatedAt(any(prev).(model.CreatedStamper).GetCreatedAt())
			}

			if err := db.Save(row).Error; err != nil {
				return errors.Wrapf(err, "%s: update %s", r.kind, meta.ID)
			}
		}

		// 同一批次内重复的 ID 依次递增版本
		existing[meta.ID] = row

		if err := convert.StructAssign(row, records[i]); err != nil {
			return errors.Wrapf(err, "%s: convert row", r.kind)
		}
	}

	return nil
}

// create 以 version=1 插入新记录
// skipConflict 为 true 时主键已存在不报错，返回 false
func (r *entityRepository[T, M, PM]) create(db *gorm.DB, row PM, now int64, skipConflict bool) (bool, error) {
	meta := row.Meta()
	meta.Version = 1
	meta.UpdatedAt = now
	if cs, ok := any(row).(model.CreatedStamper); ok && cs.GetCreatedAt() == 0 {
		cs.SetCreatedAt(now)
	}

	if skipConflict {
		db = db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true})
	}
	res := db.Create(row)
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "%s: create %s", r.kind, meta.ID)
	}
	return res.RowsAffected > 0, nil
}

// lockByID 读取并锁定单条记录直到事务结束，SQLite 方言忽略 FOR UPDATE
func (r *entityRepository[T, M, PM]) lockByID(db *gorm.DB, id string) (PM, error) {
	row := PM(new(M))
	err := db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).Where("id = ?", id).Take(row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 插入被其他唯一键拒绝（MySQL 的 ON DUPLICATE KEY 不区分冲突的索引）
		return nil, errors.Wrapf(gorm.ErrDuplicatedKey, "%s: create %s", r.kind, id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "%s: lock %s", r.kind, id)
	}
	return row, nil
}

// FindUpdatedSince 返回 updated_at >= since 的全部记录，包含墓碑
func (r *entityRepository[T, M, PM]) FindUpdatedSince(ctx context.Context, since int64) ([]*T, error) {
	var list []M
	if err := r.conn(ctx).Where("updated_at >= ?", since).Order("updated_at").Find(&list).Error; err != nil {
		return nil, errors.Wrapf(err, "%s: find updated since %d", r.kind, since)
	}
	return r.toDomainList(list)
}

// loadByIDs 分批读取已存在的记录
func (r *entityRepository[T, M, PM]) loadByIDs(db *gorm.DB, ids []string) (map[string]PM, error) {
	existing := make(map[string]PM, len(ids))
	for start := 0; start < len(ids); start += lookupChunkSize {
		end := min(start+lookupChunkSize, len(ids))

		var list []M
		if err := db.Where("id IN ?", ids[start:end]).Find(&list).Error; err != nil {
			return nil, errors.Wrapf(err, "%s: load existing", r.kind)
		}
		for j := range list {
			row := PM(&list[j])
			existing[row.Meta().ID] = row
		}
	}
	return existing, nil
}

func (r *entityRepository[T, M, PM]) first(ctx context.Context, query any, args ...any) (*T, error) {
	var m M
	err := r.conn(ctx).Where(query, args...).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "%s: get", r.kind)
	}
	return convert.To[T](&m)
}

func (r *entityRepository[T, M, PM]) toDomainList(list []M) ([]*T, error) {
	out := make([]*T, 0, len(list))
	for j := range list {
		t, err := convert.To[T](&list[j])
		if err != nil {
			return nil, errors.Wrapf(err, "%s: convert row", r.kind)
		}
		out = append(out, t)
	}
	return out, nil
}
