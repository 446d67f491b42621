package request

// RemoveMemberRequest 移除会话成员请求（仅群主可用）
// 使用位置:
//   - internal/handler/conversation_handler.go: RemoveMember
type RemoveMemberRequest struct {
	ConversationId string `json:"conversation_id" binding:"required"`
	UserId         string `json:"user_id" binding:"required"`
}
