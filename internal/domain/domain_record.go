// Package domain 定义领域模型和接口
package domain

import "errors"

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate 违反唯一约束
	ErrDuplicate = errors.New("record already exists")
)

// EntityKind 可同步实体类型
type EntityKind string

const (
	KindNovel   EntityKind = "novel"
	KindVolume  EntityKind = "volume"
	KindChapter EntityKind = "chapter"
	KindIdea    EntityKind = "idea"
	KindUser    EntityKind = "user"
)

// SyncKinds 参与 push/pull 的实体类型，顺序固定
var SyncKinds = []EntityKind{KindNovel, KindVolume, KindChapter, KindIdea}

// Record 所有可同步实体共享的版本化记录
// ID 首次持久化时由存储层生成（调用方未提供时）
// Version 从 1 开始，每次写入加 1
// UpdatedAt 毫秒时间戳，由存储层设置，单条记录内单调不减
// Deleted 逻辑删除标记（墓碑），记录不会被物理删除
type Record struct {
	ID        string
	Version   int64
	UpdatedAt int64
	Deleted   bool
}

// IsTombstone 是否为墓碑记录
func (r *Record) IsTombstone() bool {
	return r.Deleted
}

// RecordCount 单个实体类型的记录统计
type RecordCount struct {
	Kind       EntityKind
	Live       int64
	Tombstones int64
}
