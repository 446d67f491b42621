package request

// WebSocket 入站帧操作类型
const (
	OpSendMessage          = "send_message"
	OpTyping               = "typing"
	OpMarkRead             = "mark_read"
	OpMarkConversationRead = "mark_conversation_read"
)

// ClientFrame WebSocket 入站帧
// Op 决定有效字段：send_message 用消息字段，typing/mark_conversation_read
// 只用 ConversationId，mark_read 只用 MessageId。
// SenderId 由网关按连接归属填写，前端传入的值不被信任
// 使用位置:
//   - internal/service/chat/ws_gateway.go: Read
//   - internal/service/chatmsg/message_service.go: HandleFrame
type ClientFrame struct {
	Op             string `json:"op"`
	SenderId       string `json:"sender_id"`
	ConversationId string `json:"conversation_id"`
	MessageId      int64  `json:"message_id,string"`
	Type           int8   `json:"type"`
	Content        string `json:"content"`
	Url            string `json:"url"`
	FileName       string `json:"file_name"`
	FileSize       string `json:"file_size"`
}
