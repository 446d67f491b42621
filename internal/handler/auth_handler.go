// Package handler 提供 HTTP 请求处理器
// 本文件处理认证相关的 API 请求
package handler

import (
	"lingyin_social_server/internal/dto/request"
	"lingyin_social_server/internal/service/user"

	"github.com/gin-gonic/gin"
)

// AuthHandler 认证请求处理器
type AuthHandler struct {
	userSvc user.Service
}

// NewAuthHandler 创建认证 Handler 实例
func NewAuthHandler(userSvc user.Service) *AuthHandler {
	return &AuthHandler{userSvc: userSvc}
}

// Register 用户注册
// POST /auth/register
// 注册成功直接签发令牌对，免去二次登录
func (h *AuthHandler) Register(c *gin.Context) {
	var req request.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.userSvc.Register(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// Login 密码登录
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req request.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.userSvc.Login(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// RefreshToken 刷新令牌对
// POST /auth/refresh
// 单点互踢：token_id 与 Redis 登记值不一致时拒绝，旧设备需重新登录
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req request.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.userSvc.RefreshToken(req.RefreshToken)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}
