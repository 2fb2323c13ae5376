// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

// ServiceConfig service layer configuration
// ServiceConfig 服务层配置
type ServiceConfig struct {
	User     UserServiceConfig     // User related config // 用户相关配置
	Sync     SyncServiceConfig     // Sync related config // 同步相关配置
	Snapshot SnapshotServiceConfig // Snapshot related config // 快照相关配置
}

// UserServiceConfig user service configuration
// UserServiceConfig 用户服务配置
type UserServiceConfig struct {
	RegisterIsEnable bool // Whether registration is enabled // 注册是否启用
}

// SyncServiceConfig sync service configuration
// SyncServiceConfig 同步服务配置
type SyncServiceConfig struct {
	SnapshotPull bool // Read all kinds inside one read transaction // 在同一个只读事务中读取全部类型
	HintEnabled  bool // Broadcast sync hints after push // 推送后广播同步提示
}

// SnapshotServiceConfig snapshot service configuration
// SnapshotServiceConfig 快照服务配置
type SnapshotServiceConfig struct {
	Retain int // Snapshots to keep, 0 keeps all // 保留的快照数量，0 表示全部保留
}
