package request

// LeaveConversationRequest 退出会话请求
// 使用位置:
//   - internal/handler/conversation_handler.go: LeaveConversation
type LeaveConversationRequest struct {
	ConversationId string `json:"conversation_id" binding:"required"`
}
