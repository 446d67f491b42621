// Package handler 提供 HTTP 请求处理器
// 本文件处理用户资料相关的 API 请求
package handler

import (
	"lingyin_social_server/internal/dto/request"
	"lingyin_social_server/internal/service/user"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户请求处理器
type UserHandler struct {
	userSvc user.Service
}

// NewUserHandler 创建用户 Handler 实例
func NewUserHandler(userSvc user.Service) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// GetUserInfo 查询用户资料（含实时在线状态）
// GET /user/:uuid
func (h *UserHandler) GetUserInfo(c *gin.Context) {
	uuid := c.Param("uuid")
	rsp, err := h.userSvc.GetUserInfo(uuid)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// UpdateUserInfo 更新当前用户资料
// POST /user/update
func (h *UserHandler) UpdateUserInfo(c *gin.Context) {
	var req request.UpdateUserInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	userId := c.GetString("user_id")
	if err := h.userSvc.UpdateUserInfo(userId, req); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
