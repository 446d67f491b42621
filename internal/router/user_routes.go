// Package router 提供 HTTP 路由注册
// 本文件定义用户资料相关的路由
package router

import (
	"lingyin_social_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterUserRoutes 注册用户相关路由（需要认证）
func (rt *Router) RegisterUserRoutes(r *gin.Engine) {
	userGroup := r.Group("/user")
	userGroup.Use(middleware.JWTAuth())
	{
		userGroup.GET("/:uuid", rt.handlers.User.GetUserInfo)
		userGroup.POST("/update", rt.handlers.User.UpdateUserInfo)
	}
}
