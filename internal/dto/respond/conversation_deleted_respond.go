package respond

// ConversationDeletedRespond chat_deleted 事件负载
// 使用位置:
//   - internal/service/conversation/conversation_service.go: DeleteConversation
type ConversationDeletedRespond struct {
	ConversationId string `json:"conversation_id"`
}
