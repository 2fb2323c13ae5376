package dto

// HealthDTO health check response
// HealthDTO 健康检查响应
type HealthDTO struct {
	Status    string           `json:"status"`    // ok / degraded
	Database  string           `json:"database"`  // Database status // 数据库状态
	Uptime    string           `json:"uptime"`    // Uptime // 运行时长
	Version   string           `json:"version"`   // Server version // 服务版本
	Records   []RecordCountDTO `json:"records"`   // Store counts // 存储统计
	MemoryRSS uint64           `json:"memoryRss"` // Process RSS bytes // 进程常驻内存
	CPU       float64          `json:"cpu"`       // Process CPU percent // 进程 CPU 占用
}

// RecordCountDTO per-kind record count
// RecordCountDTO 单类型记录统计
type RecordCountDTO struct {
	Kind       string `json:"kind"`
	Live       int64  `json:"live"`
	Tombstones int64  `json:"tombstones"`
}

// SnapshotDTO snapshot export result
// SnapshotDTO 快照导出结果
type SnapshotDTO struct {
	Path    string `json:"path"`    // Storage object path // 存储路径
	Cursor  int64  `json:"cursor"`  // Cursor captured after reads // 读取后捕获的游标
	Records int    `json:"records"` // Record count // 记录数
	Size    int    `json:"size"`    // Compressed size // 压缩后大小
}
