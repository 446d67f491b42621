package respond

// ParticipantLeftRespond participant_left 事件负载
// 使用位置:
//   - internal/service/conversation/conversation_service.go: LeaveConversation, RemoveMember
type ParticipantLeftRespond struct {
	ConversationId string `json:"conversation_id"`
	UserId         string `json:"user_id"`
}
