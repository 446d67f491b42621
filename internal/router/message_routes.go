// Package router 提供 HTTP 路由注册
// 本文件定义消息相关的路由
package router

import (
	"lingyin_social_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterMessageRoutes 注册消息相关路由（需要认证）
func (rt *Router) RegisterMessageRoutes(r *gin.Engine) {
	messageGroup := r.Group("/message")
	messageGroup.Use(middleware.JWTAuth())
	{
		messageGroup.POST("/send", rt.handlers.Message.SendMessage)
		messageGroup.POST("/edit", rt.handlers.Message.EditMessage)
		messageGroup.POST("/delete", rt.handlers.Message.DeleteMessage)
		messageGroup.POST("/reaction", rt.handlers.Message.UpdateReaction)
		messageGroup.POST("/read", rt.handlers.Message.MarkRead)
		messageGroup.POST("/read/conversation", rt.handlers.Message.MarkConversationRead)
		messageGroup.GET("/list/:conversationId", rt.handlers.Message.GetMessageList)
		messageGroup.GET("/status/:messageId", rt.handlers.Message.GetMessageStatus)
	}
}
