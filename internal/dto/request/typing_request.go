package request

// TypingRequest 正在输入指示请求 (WebSocket)
// 使用位置:
//   - internal/service/chat/ws_gateway.go: Read
//   - internal/service/chatmsg/message_service.go: Typing
type TypingRequest struct {
	ConversationId string `json:"conversation_id" binding:"required"`
}
