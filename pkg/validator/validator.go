// Package validator gin 绑定使用的 validator/v10 引擎
package validator

import (
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// CustomValidator 实现 binding.StructValidator，延迟初始化 validator/v10
type CustomValidator struct {
	once     sync.Once
	validate *validator.Validate
}

func NewCustomValidator() *CustomValidator {
	return &CustomValidator{}
}

// ValidateStruct 仅校验结构体（及其指针），其余类型直接通过
func (v *CustomValidator) ValidateStruct(obj any) error {
	if kindOfData(obj) != reflect.Struct {
		return nil
	}
	v.lazyinit()
	if err := v.validate.Struct(obj); err != nil {
		return err
	}
	return nil
}

func (v *CustomValidator) Engine() any {
	v.lazyinit()
	return v.validate
}

func (v *CustomValidator) lazyinit() {
	v.once.Do(func() {
		v.validate = validator.New()
		v.validate.SetTagName("binding")
	})
}

func kindOfData(data any) reflect.Kind {
	value := reflect.ValueOf(data)
	valueType := value.Kind()
	if valueType == reflect.Ptr {
		valueType = value.Elem().Kind()
	}
	return valueType
}

// RegisterCustom 注册自定义校验规则
// entityid: 记录 ID 对服务端不透明，只要求能原样存入数据库：合法 UTF-8 且不含 NUL
func RegisterCustom() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("entityid", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return utf8.ValidString(s) && !strings.ContainsRune(s, 0)
	})
}

var _ binding.StructValidator = (*CustomValidator)(nil)
