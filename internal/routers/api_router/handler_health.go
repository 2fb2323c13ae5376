package api_router

import (
	"github.com/haierkeys/novel-sync-service/internal/app"
	"github.com/haierkeys/novel-sync-service/internal/service"
	pkgapp "github.com/haierkeys/novel-sync-service/pkg/app"
	"github.com/haierkeys/novel-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	*Handler
}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(a)}
}

// Check 健康检查接口
// @Summary 健康检查
// @Description 检查服务健康状态，包括数据库连接、存储统计和进程资源
// @Tags 系统
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.HealthDTO}
// @Router /api/health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	res, _ := h.App.StatsService.Health(c.Request.Context())
	if res.Status != service.HealthStatusOK {
		pkgapp.NewResponse(c).ToResponse(code.Failed.WithData(res))
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(res))
}
