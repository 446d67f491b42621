package respond

// ConversationRespond 会话响应，也是 new_chat / chat_updated 事件的负载
// 使用位置:
//   - internal/service/conversation/conversation_service.go
type ConversationRespond struct {
	ConversationId string   `json:"conversation_id"`
	Type           int8     `json:"type"`
	Name           string   `json:"name"`
	Avatar         string   `json:"avatar"`
	OwnerId        string   `json:"owner_id"`
	MemberIds      []string `json:"member_ids,omitempty"`
	LastMessage    string   `json:"last_message"`
	LastMessageAt  string   `json:"last_message_at"`
	UnreadCount    int64    `json:"unread_count"`
}
