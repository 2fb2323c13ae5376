package dao

import (
	"context"

	"github.com/haierkeys/novel-sync-service/internal/domain"
	"github.com/haierkeys/novel-sync-service/internal/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// userRepository 用户仓储实现
type userRepository struct {
	*entityRepository[domain.User, model.User, *model.User]
}

// NewUserRepository 创建 UserRepository 实例
func NewUserRepository(d *Dao) domain.UserRepository {
	return &userRepository{
		entityRepository: newEntityRepository[domain.User, model.User, *model.User](d, domain.KindUser),
	}
}

// UpsertAll 与同步推送一样在写事务中执行，用户名重复时返回 domain.ErrDuplicate
func (r *userRepository) UpsertAll(ctx context.Context, users []*domain.User) error {
	err := r.dao.ExecuteWrite(ctx, func(ctx context.Context) error {
		return r.dao.DB(ctx).Transaction(func(tx *gorm.DB) error {
			return r.withDB(tx).UpsertAll(ctx, users)
		})
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Wrap(domain.ErrDuplicate, err.Error())
	}
	return err
}

// GetByID 根据ID获取用户
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByUsername 根据用户名获取用户（排除已删除）
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.first(ctx, "username = ? AND deleted = ?", username, false)
}

// 确保 userRepository 实现了 domain.UserRepository 接口
var _ domain.UserRepository = (*userRepository)(nil)
