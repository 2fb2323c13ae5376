// Package model 定义数据库模型
package model

import (
	"gorm.io/gorm"
)

// Base 版本化记录的公共列
type Base struct {
	ID        string `gorm:"column:id;size:64;primaryKey" json:"id"`
	Version   int64  `gorm:"column:version;not null" json:"version"`
	UpdatedAt int64  `gorm:"column:updated_at;not null;index;autoUpdateTime:false" json:"updatedAt"`
	Deleted   bool   `gorm:"column:deleted;not null" json:"deleted"`
}

// Meta 返回公共列，供泛型仓储读写
func (b *Base) Meta() *Base {
	return b
}

// Versioned 所有嵌入 Base 的模型都满足该接口
type Versioned interface {
	Meta() *Base
}

// CreatedStamper 带有不可变创建时间列的模型
type CreatedStamper interface {
	GetCreatedAt() int64
	SetCreatedAt(ms int64)
}

// All 全部需要迁移的模型
func All() []any {
	return []any{
		&Novel{},
		&Volume{},
		&Chapter{},
		&Idea{},
		&User{},
	}
}

// AutoMigrate 自动迁移全部模型
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
