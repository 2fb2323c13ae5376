// Package app 提供 HTTP 与 websocket 的响应封装、参数校验和 Token 管理
package app

import (
	"strings"

	"github.com/haierkeys/novel-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// VersionInfo 构建版本信息
type VersionInfo struct {
	Version   string `json:"version"`
	GitTag    string `json:"gitTag"`
	BuildTime string `json:"buildTime"`
}

// Res 成功与失败共用的响应信封，Details 为逗号拼接的详情
type Res struct {
	Code    int    `json:"code"`
	Status  bool   `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Details string `json:"details,omitempty"`
}

func newRes(c *code.Code) Res {
	res := Res{
		Code:    c.Code(),
		Status:  c.Status(),
		Message: c.Lang.GetMessage(),
		Data:    c.Data(),
	}
	if c.HaveDetails() {
		res.Details = strings.Join(c.Details(), ",")
	}
	return res
}

type Response struct {
	Ctx *gin.Context
}

func NewResponse(ctx *gin.Context) *Response {
	return &Response{Ctx: ctx}
}

// ToResponse 以 c 输出 JSON 信封
func (r *Response) ToResponse(c *code.Code) {
	r.Ctx.JSON(c.StatusCode(), newRes(c))
}

// GetRequestIP 客户端 IP，IPv6 回环地址归一为 127.0.0.1
func GetRequestIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "::1" {
		return ip
	}
	return "127.0.0.1"
}
