package request

// DeleteMessageRequest 删除消息请求
// 使用位置:
//   - internal/handler/message_handler.go: DeleteMessage
type DeleteMessageRequest struct {
	MessageId int64 `json:"message_id,string" binding:"required"`
}
