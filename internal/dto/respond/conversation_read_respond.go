package respond

// ConversationReadRespond chat_read_updated 事件负载
// 使用位置:
//   - internal/service/chatmsg/message_service.go: MarkConversationRead
type ConversationReadRespond struct {
	ConversationId string `json:"conversation_id"`
	UserId         string `json:"user_id"`
	ReadAt         string `json:"read_at"`
}
