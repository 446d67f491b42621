package request

// EditMessageRequest 编辑消息请求
// MessageId 雪花 ID，JSON 传输用字符串避免前端精度丢失
// 使用位置:
//   - internal/handler/message_handler.go: EditMessage
type EditMessageRequest struct {
	MessageId int64  `json:"message_id,string" binding:"required"`
	Content   string `json:"content" binding:"required"`
}
