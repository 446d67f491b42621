package request

// MarkConversationReadRequest 标记整个会话已读请求
// 使用位置:
//   - internal/handler/message_handler.go: MarkConversationRead
//   - internal/service/chat/ws_gateway.go: Read
type MarkConversationReadRequest struct {
	ConversationId string `json:"conversation_id" binding:"required"`
}
