// Package router 提供 HTTP 路由注册
// 本文件定义会话相关的路由
package router

import (
	"lingyin_social_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterConversationRoutes 注册会话相关路由（需要认证）
func (rt *Router) RegisterConversationRoutes(r *gin.Engine) {
	conversationGroup := r.Group("/conversation")
	conversationGroup.Use(middleware.JWTAuth())
	{
		conversationGroup.POST("/create", rt.handlers.Conversation.CreateConversation)
		conversationGroup.POST("/update", rt.handlers.Conversation.UpdateConversation)
		conversationGroup.POST("/delete/:conversationId", rt.handlers.Conversation.DeleteConversation)
		conversationGroup.POST("/leave", rt.handlers.Conversation.LeaveConversation)
		conversationGroup.POST("/members/add", rt.handlers.Conversation.AddMembers)
		conversationGroup.POST("/members/remove", rt.handlers.Conversation.RemoveMember)
		conversationGroup.GET("/list", rt.handlers.Conversation.GetConversationList)
		conversationGroup.GET("/:conversationId", rt.handlers.Conversation.GetConversationDetail)
	}
}
