package respond

// ReactionRespond reaction_updated 事件负载，携带变更后的表情汇总
// 使用位置:
//   - internal/service/chatmsg/message_service.go: UpdateReaction
type ReactionRespond struct {
	MessageId      int64  `json:"message_id,string"`
	ConversationId string `json:"conversation_id"`
	Reactions      string `json:"reactions"`
}
