// Package service 实现业务逻辑层
package service

import (
	"context"
	"errors"

	"github.com/haierkeys/novel-sync-service/internal/domain"
	"github.com/haierkeys/novel-sync-service/internal/dto"
	"github.com/haierkeys/novel-sync-service/pkg/app"
	"github.com/haierkeys/novel-sync-service/pkg/code"
	"github.com/haierkeys/novel-sync-service/pkg/logger"
	"github.com/haierkeys/novel-sync-service/pkg/util"

	"go.uber.org/zap"
)

// UserService 账号注册、登录与 Token 签发
// 账号本身也是 VersionedRecord，资料经由同步接口推送，这里只负责凭据
type UserService interface {
	// Register 受 user.register-is-enable 控制
	Register(ctx context.Context, params *dto.UserCreateRequest) (*dto.UserDTO, error)
	// Create 不受注册开关限制，供命令行使用
	Create(ctx context.Context, params *dto.UserCreateRequest) (*dto.UserDTO, error)
	Login(ctx context.Context, params *dto.UserLoginRequest, clientIP string) (*dto.UserDTO, error)
	// Token 不校验密码直接签发，供命令行使用
	Token(ctx context.Context, username string) (*dto.UserDTO, error)
	GetInfo(ctx context.Context, uid string) (*dto.UserDTO, error)
}

type userService struct {
	users  domain.UserRepository
	tokens app.TokenManager
	logger *zap.Logger
	config *ServiceConfig
}

func NewUserService(users domain.UserRepository, tokens app.TokenManager, logger *zap.Logger, config *ServiceConfig) UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &userService{users: users, tokens: tokens, logger: logger, config: config}
}

func userToDTO(user *domain.User) *dto.UserDTO {
	if user == nil {
		return nil
	}
	return &dto.UserDTO{
		ID:         user.ID,
		Username:   user.Username,
		Nickname:   user.Nickname,
		AvatarURL:  user.AvatarURL,
		Version:    user.Version,
		UpdatedAt:  user.UpdatedAt,
		LastSyncAt: user.LastSyncAt,
	}
}

func (s *userService) Register(ctx context.Context, params *dto.UserCreateRequest) (*dto.UserDTO, error) {
	if s.config == nil || !s.config.User.RegisterIsEnable {
		return nil, code.ErrorUserRegisterIsDisable
	}
	return s.Create(ctx, params)
}

func (s *userService) Create(ctx context.Context, params *dto.UserCreateRequest) (*dto.UserDTO, error) {
	if !util.IsValidUsername(params.Username) {
		return nil, code.ErrorUserUsernameNotValid
	}

	switch existing, err := s.users.GetByUsername(ctx, params.Username); {
	case existing != nil:
		return nil, code.ErrorUserAlreadyExists
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	hash, err := util.GeneratePasswordHash(params.Password)
	if err != nil {
		return nil, code.ErrorPasswordNotValid
	}

	user := &domain.User{Username: params.Username, PasswordHash: hash, Nickname: params.Nickname}
	switch err := s.users.UpsertAll(ctx, []*domain.User{user}); {
	case errors.Is(err, domain.ErrDuplicate):
		// 并发注册同名用户，唯一索引拒绝后到者
		return nil, code.ErrorUserAlreadyExists
	case err != nil:
		return nil, code.ErrorUserRegister.WithDetails(err.Error())
	}

	s.logger.Info("user created",
		zap.String(logger.FieldUID, user.ID),
		zap.String("username", user.Username))

	return s.withToken(user, "")
}

// Login 账号不存在与密码错误返回同一个错误码
func (s *userService) Login(ctx context.Context, params *dto.UserLoginRequest, clientIP string) (*dto.UserDTO, error) {
	user, err := s.users.GetByUsername(ctx, params.Username)
	if err != nil || !util.CheckPasswordHash(user.PasswordHash, params.Password) {
		return nil, code.ErrorUserLoginPasswordFailed
	}
	return s.withToken(user, clientIP)
}

func (s *userService) Token(ctx context.Context, username string) (*dto.UserDTO, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, code.ErrorUserNotFound
	}
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	return s.withToken(user, "")
}

func (s *userService) GetInfo(ctx context.Context, uid string) (*dto.UserDTO, error) {
	user, err := s.users.GetByID(ctx, uid)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, code.ErrorUserNotFound
	}
	if err != nil {
		s.logger.Error("UserService.GetInfo failed",
			zap.String(logger.FieldUID, uid),
			zap.Error(err),
		)
		return nil, code.ErrorDBQuery
	}
	return userToDTO(user), nil
}

func (s *userService) withToken(user *domain.User, clientIP string) (*dto.UserDTO, error) {
	token, err := s.tokens.Generate(user.ID, user.Username, clientIP)
	if err != nil {
		return nil, code.ErrorTokenGenerate.WithDetails(err.Error())
	}

	out := userToDTO(user)
	out.Token = token
	return out, nil
}
