package respond

// MessageDeletedRespond message_deleted 事件负载
// 使用位置:
//   - internal/service/chatmsg/message_service.go: DeleteMessage
type MessageDeletedRespond struct {
	MessageId      int64  `json:"message_id,string"`
	ConversationId string `json:"conversation_id"`
}
