package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
)

type sample struct {
	ID   string `binding:"entityid,max=8"`
	Name string `binding:"required"`
}

func TestCustomValidator(t *testing.T) {
	prev := binding.Validator
	t.Cleanup(func() { binding.Validator = prev })

	binding.Validator = NewCustomValidator()
	RegisterCustom()

	v := binding.Validator
	assert.NoError(t, v.ValidateStruct(&sample{ID: "n-1", Name: "x"}))
	assert.NoError(t, v.ValidateStruct(&sample{Name: "x"}))
	assert.NoError(t, v.ValidateStruct(&sample{ID: "a/b c", Name: "x"}), "ids are opaque")
	assert.Error(t, v.ValidateStruct(&sample{ID: "a\x00b", Name: "x"}))
	assert.Error(t, v.ValidateStruct(&sample{ID: "\xff", Name: "x"}))
	assert.Error(t, v.ValidateStruct(&sample{ID: "n-1"}))
	assert.Error(t, v.ValidateStruct(&sample{ID: "123456789", Name: "x"}))

	// 非结构体直接通过
	assert.NoError(t, v.ValidateStruct("plain"))
}
