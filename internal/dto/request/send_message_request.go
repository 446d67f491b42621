package request

// SendMessageRequest 发送消息请求 (WebSocket / HTTP)
// 使用位置:
//   - internal/service/chat/ws_gateway.go: Read
//   - internal/service/chatmsg/message_service.go: SendMessage
type SendMessageRequest struct {
	ConversationId string `json:"conversation_id" binding:"required"`
	Type           int8   `json:"type"`
	Content        string `json:"content"`
	Url            string `json:"url"`
	FileName       string `json:"file_name"`
	FileSize       string `json:"file_size"`
}
