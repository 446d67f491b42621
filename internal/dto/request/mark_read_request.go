package request

// MarkReadRequest 标记单条消息已读请求
// 使用位置:
//   - internal/handler/message_handler.go: MarkRead
//   - internal/service/chat/ws_gateway.go: Read
type MarkReadRequest struct {
	MessageId int64 `json:"message_id,string" binding:"required"`
}
