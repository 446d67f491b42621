package respond

// TypingRespond typing_indicator 事件负载
// 使用位置:
//   - internal/service/chatmsg/message_service.go: Typing
type TypingRespond struct {
	ConversationId string `json:"conversation_id"`
	UserId         string `json:"user_id"`
}
