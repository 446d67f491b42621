package request

// UpdateConversationRequest 更新会话信息请求
// 使用位置:
//   - internal/handler/conversation_handler.go: UpdateConversation
type UpdateConversationRequest struct {
	ConversationId string `json:"conversation_id" binding:"required"`
	Name           string `json:"name"`
	Avatar         string `json:"avatar"`
}
