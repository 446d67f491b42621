// Package user 实现用户账号业务逻辑
// 注册、登录、令牌刷新和用户资料维护。
// Refresh Token 的 token_id 存 Redis 实现单点互踢，新登录使旧刷新令牌失效
package user

import (
	"context"
	"time"

	"lingyin_social_server/internal/dao/mysql"
	myredis "lingyin_social_server/internal/dao/redis"
	"lingyin_social_server/internal/dto/request"
	"lingyin_social_server/internal/dto/respond"
	"lingyin_social_server/internal/model"
	"lingyin_social_server/pkg/constants"
	"lingyin_social_server/pkg/errorx"
	"lingyin_social_server/pkg/util/jwt"
	"lingyin_social_server/pkg/util/random"

	"go.uber.org/zap"
)

// Service 用户服务接口
type Service interface {
	// Register 注册新用户并直接签发令牌
	Register(req request.RegisterRequest) (*respond.LoginRespond, error)
	// Login 手机号密码登录
	Login(req request.LoginRequest) (*respond.LoginRespond, error)
	// RefreshToken 用 Refresh Token 换取新的令牌对
	RefreshToken(refreshToken string) (*respond.LoginRespond, error)
	// GetUserInfo 查询用户资料
	GetUserInfo(uuid string) (*respond.GetUserInfoRespond, error)
	// UpdateUserInfo 更新用户资料
	UpdateUserInfo(uuid string, req request.UpdateUserInfoRequest) error
}

// OnlineChecker 在线状态查询，由 presence.Registry 实现
type OnlineChecker interface {
	IsOnline(userId string) bool
}

// userService Service 接口实现
type userService struct {
	userRepo     mysql.UserRepository
	cacheService myredis.AsyncCacheService
	presence     OnlineChecker
}

// NewService 创建用户服务实例
func NewService(userRepo mysql.UserRepository, cacheService myredis.AsyncCacheService, presence OnlineChecker) Service {
	return &userService{
		userRepo:     userRepo,
		cacheService: cacheService,
		presence:     presence,
	}
}

// refreshTokenKey 单点互踢用的 Redis 键
func refreshTokenKey(userId string) string {
	return "refresh_token_" + userId
}

// issueTokens 签发令牌对并登记 token_id
func (s *userService) issueTokens(user *model.UserInfo) (*respond.LoginRespond, error) {
	accessToken, err := jwt.GenerateAccessToken(user.Uuid)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeServerBusy, "签发令牌失败")
	}
	refreshToken, tokenID, err := jwt.GenerateRefreshToken(user.Uuid)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeServerBusy, "签发令牌失败")
	}

	// 只保留最新的 token_id，旧设备的刷新令牌随之失效
	if err := s.cacheService.Set(context.Background(), refreshTokenKey(user.Uuid),
		tokenID, time.Hour*constants.REFRESH_TOKEN_EXPIRY_HOURS); err != nil {
		zap.L().Error("登记刷新令牌失败", zap.String("userId", user.Uuid), zap.Error(err))
	}

	return &respond.LoginRespond{
		Uuid:         user.Uuid,
		Nickname:     user.Nickname,
		Avatar:       user.Avatar,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Register 注册新用户
func (s *userService) Register(req request.RegisterRequest) (*respond.LoginRespond, error) {
	if _, err := s.userRepo.FindByTelephone(req.Telephone); err == nil {
		return nil, errorx.New(errorx.CodeUserExist, "该手机号已注册")
	} else if !errorx.IsNotFound(err) {
		return nil, err
	}

	user := model.UserInfo{
		Uuid:        "U" + random.GetNowAndLenRandomString(13),
		Telephone:   req.Telephone,
		Nickname:    req.Nickname,
		RawPassword: req.Password,
	}
	if err := s.userRepo.CreateUser(&user); err != nil {
		return nil, err
	}
	zap.L().Info("新用户注册", zap.String("uuid", user.Uuid))
	return s.issueTokens(&user)
}

// Login 手机号密码登录
func (s *userService) Login(req request.LoginRequest) (*respond.LoginRespond, error) {
	user, err := s.userRepo.FindByTelephone(req.Telephone)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeUserNotExist, "用户不存在")
		}
		return nil, err
	}
	if !user.CheckPassword(req.Password) {
		return nil, errorx.New(errorx.CodeInvalidPassword, "密码错误")
	}
	if user.Status != 0 {
		return nil, errorx.ErrForbidden
	}
	return s.issueTokens(user)
}

// RefreshToken 刷新令牌
// token_id 与 Redis 登记值不符说明已在别处重新登录，拒绝刷新
func (s *userService) RefreshToken(refreshToken string) (*respond.LoginRespond, error) {
	claims, err := jwt.ParseToken(refreshToken)
	if err != nil || claims.Subject != jwt.TokenKindRefresh || claims.TokenId == "" {
		return nil, errorx.New(errorx.CodeUnauthorized, "刷新令牌无效")
	}

	registered, err := s.cacheService.GetOrError(context.Background(), refreshTokenKey(claims.UserId))
	if err != nil || registered != claims.TokenId {
		return nil, errorx.New(errorx.CodeUnauthorized, "刷新令牌已失效")
	}

	user, err := s.userRepo.FindByUuid(claims.UserId)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(user)
}

// GetUserInfo 查询用户资料
func (s *userService) GetUserInfo(uuid string) (*respond.GetUserInfoRespond, error) {
	user, err := s.userRepo.FindByUuid(uuid)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeUserNotExist, "用户不存在")
		}
		return nil, err
	}
	return &respond.GetUserInfoRespond{
		Uuid:      user.Uuid,
		Nickname:  user.Nickname,
		Telephone: user.Telephone,
		Avatar:    user.Avatar,
		Email:     user.Email,
		Signature: user.Signature,
		CreatedAt: user.CreatedAt.Format("2006-01-02 15:04:05"),
		Online:    s.presence.IsOnline(uuid),
	}, nil
}

// UpdateUserInfo 更新用户资料，空字段不覆盖
func (s *userService) UpdateUserInfo(uuid string, req request.UpdateUserInfoRequest) error {
	user, err := s.userRepo.FindByUuid(uuid)
	if err != nil {
		return err
	}
	if req.Nickname != "" {
		user.Nickname = req.Nickname
	}
	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}
	if req.Signature != "" {
		user.Signature = req.Signature
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	return s.userRepo.UpdateUserInfo(user)
}
