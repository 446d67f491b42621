// Package router 提供 HTTP 路由注册
// 本文件定义 WebSocket 相关的路由
package router

import (
	"lingyin_social_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterWebSocketRoutes 注册 WebSocket 相关路由（需要认证）
// 浏览器 WebSocket API 不支持自定义 Header，JWT 中间件同时接受
// Authorization 头和 token 查询参数
// 请求示例: wss://host:port/ws/connect?token=xxx
func (rt *Router) RegisterWebSocketRoutes(r *gin.Engine) {
	wsGroup := r.Group("/ws")
	wsGroup.Use(middleware.JWTAuth())
	{
		wsGroup.GET("/connect", rt.handlers.Ws.Connect)
	}
}
