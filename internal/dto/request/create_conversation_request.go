package request

// CreateConversationRequest 创建会话请求
// Type: 0 单聊 1 群聊；MemberIds 不含创建者本人
// 使用位置:
//   - internal/handler/conversation_handler.go: CreateConversation
//   - internal/service/conversation/conversation_service.go: CreateConversation
type CreateConversationRequest struct {
	Type      int8     `json:"type"`
	Name      string   `json:"name"`
	Avatar    string   `json:"avatar"`
	MemberIds []string `json:"member_ids" binding:"required,min=1"`
}
