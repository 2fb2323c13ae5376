// Package api_router 提供 HTTP API 路由处理器
package api_router

import (
	"context"

	"github.com/haierkeys/novel-sync-service/internal/app"
	"github.com/haierkeys/novel-sync-service/internal/middleware"
	pkgapp "github.com/haierkeys/novel-sync-service/pkg/app"
	"github.com/haierkeys/novel-sync-service/pkg/code"
	"github.com/haierkeys/novel-sync-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 基础 Handler，各业务 Handler 嵌入它获得 App Container
type Handler struct {
	App *app.App
}

// NewHandler 创建基础 Handler 实例
func NewHandler(a *app.App) *Handler {
	return &Handler{App: a}
}

// bind 绑定并校验请求参数，失败时以 failure 响应并返回 false
func (h *Handler) bind(c *gin.Context, method string, params any, failure *code.Code) bool {
	valid, errs := pkgapp.BindAndValid(c, params)
	if valid {
		return true
	}
	h.App.Logger().Warn(method+".BindAndValid errs", zap.Error(errs))
	pkgapp.NewResponse(c).ToResponse(failure.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
	return false
}

// logError 记录错误日志，附带 Trace ID
func (h *Handler) logError(ctx context.Context, method string, err error) {
	h.App.Logger().Error(method,
		zap.Error(err),
		zap.String(logger.FieldTraceID, middleware.GetTraceID(ctx)),
	)
}
