package api_router

import (
	"github.com/haierkeys/novel-sync-service/internal/app"
	"github.com/haierkeys/novel-sync-service/internal/dto"
	pkgapp "github.com/haierkeys/novel-sync-service/pkg/app"
	"github.com/haierkeys/novel-sync-service/pkg/code"
	apperrors "github.com/haierkeys/novel-sync-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

// UserHandler 账号注册、登录与当前账号信息
type UserHandler struct {
	*Handler
}

func NewUserHandler(a *app.App) *UserHandler {
	return &UserHandler{Handler: NewHandler(a)}
}

// Register 注册账号并返回带 Token 的账号信息，注册关闭时返回 ErrorUserRegisterIsDisable
// @Summary User registration
// @Tags User
// @Accept json
// @Produce json
// @Param params body dto.UserCreateRequest true "Register Parameters"
// @Success 200 {object} pkgapp.Res{data=dto.UserDTO} "Success"
// @Router /api/user/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	params := &dto.UserCreateRequest{}
	if !h.bind(c, "UserHandler.Register", params, code.ErrorInvalidParams) {
		return
	}

	ctx := c.Request.Context()
	user, err := h.App.UserService.Register(ctx, params)
	if err != nil {
		h.logError(ctx, "UserHandler.Register", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.SuccessCreate.WithData(user))
}

// Login 用户名密码登录
// @Summary User login
// @Tags User
// @Accept json
// @Produce json
// @Param params body dto.UserLoginRequest true "Login Parameters"
// @Success 200 {object} pkgapp.Res{data=dto.UserDTO} "Success"
// @Router /api/user/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	params := &dto.UserLoginRequest{}
	if !h.bind(c, "UserHandler.Login", params, code.ErrorInvalidParams) {
		return
	}

	ctx := c.Request.Context()
	user, err := h.App.UserService.Login(ctx, params, pkgapp.GetRequestIP(c))
	if err != nil {
		h.logError(ctx, "UserHandler.Login", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(user))
}

// UserInfo 当前 Token 对应的账号
// @Summary Get user info
// @Tags User
// @Produce json
// @Security UserAuthToken
// @Success 200 {object} pkgapp.Res{data=dto.UserDTO} "Success"
// @Router /api/user/info [get]
func (h *UserHandler) UserInfo(c *gin.Context) {
	uid := pkgapp.GetUID(c)
	if uid == "" {
		pkgapp.NewResponse(c).ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	ctx := c.Request.Context()
	user, err := h.App.UserService.GetInfo(ctx, uid)
	if err != nil {
		h.logError(ctx, "UserHandler.UserInfo", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(user))
}
