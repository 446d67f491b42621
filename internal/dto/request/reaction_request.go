package request

// ReactionRequest 表情回应请求
// Action: "add" 添加 "remove" 取消
// 使用位置:
//   - internal/handler/message_handler.go: UpdateReaction
type ReactionRequest struct {
	MessageId int64  `json:"message_id,string" binding:"required"`
	Emoji     string `json:"emoji" binding:"required"`
	Action    string `json:"action" binding:"required,oneof=add remove"`
}
