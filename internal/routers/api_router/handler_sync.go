package api_router

import (
	"github.com/haierkeys/novel-sync-service/internal/app"
	"github.com/haierkeys/novel-sync-service/internal/dto"
	pkgapp "github.com/haierkeys/novel-sync-service/pkg/app"
	"github.com/haierkeys/novel-sync-service/pkg/code"
	apperrors "github.com/haierkeys/novel-sync-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

// SyncHandler 同步 API 路由处理器
type SyncHandler struct {
	*Handler
}

func NewSyncHandler(a *app.App) *SyncHandler {
	return &SyncHandler{Handler: NewHandler(a)}
}

// Push uploads local changes
// @Summary Push local changes
// @Description Write all changes in one transaction. Last write wins, record versions are not compared.
// @Description 在单个事务中写入全部变更，最后写入者胜出，不比较版本号。
// @Tags Sync
// @Accept json
// @Produce json
// @Param params body dto.SyncPushRequest true "Push Parameters"
// @Success 200 {object} pkgapp.Res{data=dto.SyncPushResponse} "Success"
// @Failure 400 {object} pkgapp.Res "Malformed Request / Store Failure"
// @Router /api/sync/push [post]
func (h *SyncHandler) Push(c *gin.Context) {
	params := &dto.SyncPushRequest{}
	if !h.bind(c, "SyncHandler.Push", params, code.ErrorSyncMalformedRequest) {
		return
	}

	ctx := c.Request.Context()

	res, err := h.App.SyncService.Push(ctx, params)
	if err != nil {
		h.logError(ctx, "SyncHandler.Push", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.SuccessPush.WithData(res))
}

// Pull fetches remote changes
// @Summary Pull remote changes
// @Description Return every record with updatedAt >= lastSyncCursor, tombstones included, and the cursor for the next pull.
// @Description 返回 updatedAt >= lastSyncCursor 的全部记录（含墓碑）以及下次拉取的游标。
// @Tags Sync
// @Accept json
// @Produce json
// @Param params body dto.SyncPullRequest true "Pull Parameters"
// @Success 200 {object} pkgapp.Res{data=dto.SyncPullResponse} "Success"
// @Failure 400 {object} pkgapp.Res "Malformed Request / Store Failure"
// @Router /api/sync/pull [post]
func (h *SyncHandler) Pull(c *gin.Context) {
	params := &dto.SyncPullRequest{}
	if !h.bind(c, "SyncHandler.Pull", params, code.ErrorSyncMalformedRequest) {
		return
	}

	ctx := c.Request.Context()

	res, err := h.App.SyncService.Pull(ctx, params)
	if err != nil {
		h.logError(ctx, "SyncHandler.Pull", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.SuccessPull.WithData(res))
}
