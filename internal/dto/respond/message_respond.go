package respond

// MessageRespond 消息响应，也是 new_message / message_updated 事件的负载
// 使用位置:
//   - internal/service/chatmsg/message_service.go: SendMessage, EditMessage, GetMessageList
type MessageRespond struct {
	MessageId      int64  `json:"message_id,string"`
	ConversationId string `json:"conversation_id"`
	SenderId       string `json:"sender_id"`
	SenderName     string `json:"sender_name"`
	SenderAvatar   string `json:"sender_avatar"`
	Type           int8   `json:"type"`
	Content        string `json:"content"`
	Url            string `json:"url"`
	FileName       string `json:"file_name"`
	FileSize       string `json:"file_size"`
	Reactions      string `json:"reactions"`
	IsEdited       bool   `json:"is_edited"`
	CreatedAt      string `json:"created_at"`
}
