// Package handler 提供 HTTP 请求处理器
// 本文件处理 WebSocket 连接相关的 API 请求
package handler

import (
	"lingyin_social_server/internal/service/chat"
	"lingyin_social_server/pkg/errorx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WsHandler WebSocket 连接处理器
type WsHandler struct {
	gateway *chat.Gateway
}

// NewWsHandler 创建 WebSocket Handler 实例
func NewWsHandler(gateway *chat.Gateway) *WsHandler {
	return &WsHandler{gateway: gateway}
}

// Connect 升级 HTTP 连接为 WebSocket
// GET /ws/connect?token=xxx
// 浏览器 WebSocket API 不支持自定义 Header，令牌经查询参数传递，
// 由 JWT 中间件解析后写入 user_id；连接归属以此为准，不信任前端传参
func (h *WsHandler) Connect(c *gin.Context) {
	userId := c.GetString("user_id")
	if userId == "" {
		zap.L().Error("ws连接缺少用户身份")
		HandleError(c, errorx.New(errorx.CodeUnauthorized, "未认证"))
		return
	}
	if err := h.gateway.Connect(c, userId); err != nil {
		zap.L().Error("ws连接建立失败", zap.String("userId", userId), zap.Error(err))
	}
}
