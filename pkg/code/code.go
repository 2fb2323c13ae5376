// Package code 定义接口返回码
// 成功码 status 为 true，错误码 status 为 false，HTTP 状态恒为 200
package code

import (
	"fmt"
	"net/http"
)

// Code 返回码，包级变量只读，WithData/WithDetails 返回副本
type Code struct {
	code   int
	status bool
	// Lang 多语言消息
	Lang lang

	data     any
	haveData bool

	details     []string
	haveDetails bool
}

var (
	errorCodes   = map[int]string{}
	successCodes = map[int]string{}
)

func register(table map[int]string, kind string, c int, l lang) {
	if _, ok := table[c]; ok {
		panic(fmt.Sprintf("%s %d 已经存在，请更换一个", kind, c))
	}
	table[c] = l.GetMessage()
}

// NewError 注册错误码，重复注册时 panic
func NewError(c int, l lang) *Code {
	register(errorCodes, "错误码", c, l)
	return &Code{code: c, Lang: l}
}

// NewSuss 注册成功码，重复注册时 panic
func NewSuss(c int, l lang) *Code {
	register(successCodes, "成功码", c, l)
	return &Code{code: c, status: true, Lang: l}
}

func (e *Code) clone() *Code {
	c := *e
	if e.haveDetails {
		c.details = append([]string(nil), e.details...)
	}
	return &c
}

func (e *Code) Error() string { return e.Msg() }
func (e *Code) Code() int { return e.code }
func (e *Code) Status() bool { return e.status }
func (e *Code) Msg() string { return e.Lang.GetMessage() }
func (e *Code) Data() any { return e.data }
func (e *Code) Details() []string { return e.details }
func (e *Code) HaveData() bool { return e.haveData }
func (e *Code) HaveDetails() bool { return e.haveDetails }
func (e *Code) StatusCode() int { return http.StatusOK }

// WithData 返回携带数据的副本，已有详情保留
func (e *Code) WithData(data any) *Code {
	c := e.clone()
	c.data, c.haveData = data, true
	return c
}

// WithDetails 返回追加详情的副本，已有数据保留
func (e *Code) WithDetails(details ...string) *Code {
	c := e.clone()
	c.details = append(c.details, details...)
	c.haveDetails = true
	return c
}

// Is 按错误码与状态比较，副本与包级变量可用 errors.Is 匹配
func (e *Code) Is(target error) bool {
	t, ok := target.(*Code)
	return ok && e.code == t.code && e.status == t.status
}
