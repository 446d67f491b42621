// Package handler 提供 HTTP 请求处理器
// 本文件处理会话相关的 API 请求
package handler

import (
	"lingyin_social_server/internal/dto/request"
	"lingyin_social_server/internal/service/conversation"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 会话请求处理器
type ConversationHandler struct {
	conversationSvc conversation.Service
}

// NewConversationHandler 创建会话 Handler 实例
func NewConversationHandler(conversationSvc conversation.Service) *ConversationHandler {
	return &ConversationHandler{conversationSvc: conversationSvc}
}

// CreateConversation 创建会话
// POST /conversation/create
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	var req request.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.conversationSvc.CreateConversation(c.GetString("user_id"), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// UpdateConversation 修改会话信息
// POST /conversation/update
func (h *ConversationHandler) UpdateConversation(c *gin.Context) {
	var req request.UpdateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.conversationSvc.UpdateConversation(c.GetString("user_id"), req); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// DeleteConversation 删除会话
// POST /conversation/delete/:conversationId
func (h *ConversationHandler) DeleteConversation(c *gin.Context) {
	conversationId := c.Param("conversationId")
	if err := h.conversationSvc.DeleteConversation(c.GetString("user_id"), conversationId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// LeaveConversation 退出会话
// POST /conversation/leave
func (h *ConversationHandler) LeaveConversation(c *gin.Context) {
	var req request.LeaveConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.conversationSvc.LeaveConversation(c.GetString("user_id"), req.ConversationId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// AddMembers 添加成员
// POST /conversation/members/add
func (h *ConversationHandler) AddMembers(c *gin.Context) {
	var req request.AddMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.conversationSvc.AddMembers(c.GetString("user_id"), req); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// RemoveMember 移除成员
// POST /conversation/members/remove
func (h *ConversationHandler) RemoveMember(c *gin.Context) {
	var req request.RemoveMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.conversationSvc.RemoveMember(c.GetString("user_id"), req); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// GetConversationList 获取当前用户的会话列表（含未读数）
// GET /conversation/list
func (h *ConversationHandler) GetConversationList(c *gin.Context) {
	rsp, err := h.conversationSvc.GetConversationList(c.GetString("user_id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// GetConversationDetail 获取会话详情（含成员列表）
// GET /conversation/:conversationId
func (h *ConversationHandler) GetConversationDetail(c *gin.Context) {
	conversationId := c.Param("conversationId")
	rsp, err := h.conversationSvc.GetConversationDetail(c.GetString("user_id"), conversationId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}
