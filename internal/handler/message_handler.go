// Package handler 提供 HTTP 请求处理器
// 本文件处理消息相关的 API 请求
// WebSocket 断开期间前端通过这些接口拉取历史消息和回执状态
package handler

import (
	"strconv"

	"lingyin_social_server/internal/dto/request"
	"lingyin_social_server/internal/service/chatmsg"
	"lingyin_social_server/pkg/errorx"

	"github.com/gin-gonic/gin"
)

// MessageHandler 消息请求处理器
type MessageHandler struct {
	messageSvc chatmsg.Service
}

// NewMessageHandler 创建消息 Handler 实例
func NewMessageHandler(messageSvc chatmsg.Service) *MessageHandler {
	return &MessageHandler{messageSvc: messageSvc}
}

// SendMessage 发送消息（HTTP 通道，WebSocket 之外的补充入口）
// POST /message/send
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req request.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.messageSvc.SendMessage(c.GetString("user_id"), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// EditMessage 编辑消息
// POST /message/edit
func (h *MessageHandler) EditMessage(c *gin.Context) {
	var req request.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.messageSvc.EditMessage(c.GetString("user_id"), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// DeleteMessage 删除消息
// POST /message/delete
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	var req request.DeleteMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.messageSvc.DeleteMessage(c.GetString("user_id"), req); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// UpdateReaction 添加/取消表情回应
// POST /message/reaction
func (h *MessageHandler) UpdateReaction(c *gin.Context) {
	var req request.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.messageSvc.UpdateReaction(c.GetString("user_id"), req); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// MarkRead 标记单条消息已读
// POST /message/read
func (h *MessageHandler) MarkRead(c *gin.Context) {
	var req request.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.messageSvc.MarkRead(c.GetString("user_id"), req.MessageId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// MarkConversationRead 标记整个会话已读
// POST /message/read/conversation
func (h *MessageHandler) MarkConversationRead(c *gin.Context) {
	var req request.MarkConversationReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.messageSvc.MarkConversationRead(c.GetString("user_id"), req.ConversationId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// GetMessageList 拉取会话历史消息
// GET /message/list/:conversationId
func (h *MessageHandler) GetMessageList(c *gin.Context) {
	conversationId := c.Param("conversationId")
	rsp, err := h.messageSvc.GetMessageList(c.GetString("user_id"), conversationId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// GetMessageStatus 查询消息对当前用户的回执状态
// GET /message/status/:messageId
func (h *MessageHandler) GetMessageStatus(c *gin.Context) {
	messageId, err := strconv.ParseInt(c.Param("messageId"), 10, 64)
	if err != nil {
		HandleError(c, errorx.ErrInvalidParam)
		return
	}
	rsp, err := h.messageSvc.GetMessageStatus(messageId, c.GetString("user_id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}
