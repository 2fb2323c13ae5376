// Package convert 结构体转换工具
package convert

import (
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// StructAssign
// dst 目标结构体，src 源结构体
// 它会把src与dst的相同字段名的值，复制到dst中，匿名嵌入结构体按字段展开
func StructAssign(src any, dst any) error {
	if err := copier.CopyWithOption(dst, src, copier.Option{DeepCopy: true}); err != nil {
		return errors.Wrap(err, "struct assign")
	}
	return nil
}

// To 复制 src 到新建的 T 上
func To[T any](src any) (*T, error) {
	dst := new(T)
	if err := StructAssign(src, dst); err != nil {
		return nil, err
	}
	return dst, nil
}
