package respond

// ReadStatusRespond read_status_updated 事件负载
// ReadCount 为变更后的已读人数
// 使用位置:
//   - internal/service/chatmsg/message_service.go: MarkRead
type ReadStatusRespond struct {
	MessageId      int64  `json:"message_id,string"`
	ConversationId string `json:"conversation_id"`
	ReaderId       string `json:"reader_id"`
	ReadCount      int64  `json:"read_count"`
}
