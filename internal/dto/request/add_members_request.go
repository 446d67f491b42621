package request

// AddMembersRequest 添加会话成员请求
// 使用位置:
//   - internal/handler/conversation_handler.go: AddMembers
type AddMembersRequest struct {
	ConversationId string   `json:"conversation_id" binding:"required"`
	MemberIds      []string `json:"member_ids" binding:"required,min=1"`
}
