// Package domain 定义领域模型和接口
package domain

import "context"

// EntityStore 单一实体类型的键值存储，每个类型实例化一次
type EntityStore[T any] interface {
	// UpsertAll 按 ID 写入记录：新 ID 创建（version=1），已有 ID 无条件覆盖（version+1）
	// 分配的 ID/Version/UpdatedAt 会回写到传入的记录上
	UpsertAll(ctx context.Context, records []*T) error

	// FindUpdatedSince 返回 UpdatedAt >= since 的全部记录（包含墓碑），顺序不保证
	FindUpdatedSince(ctx context.Context, since int64) ([]*T, error)
}

// SyncStores 参与同步的实体存储集合
type SyncStores struct {
	Novels   EntityStore[Novel]
	Volumes  EntityStore[Volume]
	Chapters EntityStore[Chapter]
	Ideas    EntityStore[Idea]
}

// UnitOfWork 同步存储的事务边界
type UnitOfWork interface {
	// Stores 返回绑定到基础连接的存储
	Stores() SyncStores

	// InTx 在单个写事务中执行 fn，fn 返回错误时整体回滚
	InTx(ctx context.Context, fn func(ctx context.Context, stores SyncStores) error) error

	// InSnapshot 在单个只读快照事务中执行 fn
	InSnapshot(ctx context.Context, fn func(ctx context.Context, stores SyncStores) error) error
}

// UserRepository 用户仓储接口
type UserRepository interface {
	EntityStore[User]

	// GetByID 根据ID获取用户
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByUsername 根据用户名获取用户（排除已删除）
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// StatsRepository 记录统计仓储接口
type StatsRepository interface {
	// CountRecords 按实体类型统计有效记录与墓碑数量
	CountRecords(ctx context.Context) ([]RecordCount, error)

	// Ping 检查数据库连通性
	Ping(ctx context.Context) error
}
