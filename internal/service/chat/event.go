// Package chat 实现实时聊天的核心服务层：
// 事件扇出引擎、事件总线（channel/kafka 双模式）和 WebSocket 网关
// event.go
// 核心职责：定义会话事件的封闭标签类型和推送信封
package chat

import (
	"time"
)

// EventType 会话事件类型
// 封闭集合，扇出引擎按类型做穷举分发，新增类型必须同步扩展分发逻辑
type EventType string

const (
	EventNewMessage        EventType = "new_message"         // 新消息
	EventMessageUpdated    EventType = "message_updated"     // 消息被编辑
	EventMessageDeleted    EventType = "message_deleted"     // 消息被删除
	EventReactionUpdated   EventType = "reaction_updated"    // 表情回应变更
	EventTypingIndicator   EventType = "typing_indicator"    // 正在输入
	EventReadStatusUpdated EventType = "read_status_updated" // 单条消息已读状态变更
	EventChatReadUpdated   EventType = "chat_read_updated"   // 整个会话被标记已读
	EventNewChat           EventType = "new_chat"            // 新会话创建
	EventChatUpdated       EventType = "chat_updated"        // 会话信息/成员变更
	EventChatDeleted       EventType = "chat_deleted"        // 会话被删除
	EventParticipantLeft   EventType = "participant_left"    // 成员退出会话
	EventUserStatusChanged EventType = "user_status_changed" // 用户上线/离线
)

// Event 会话事件
// 瞬态值，只在进程内（或经 Kafka 中转后）传入扇出引擎，不落库。
// 除 UserStatusChanged 外每个事件都恰好属于一个会话；
// UserStatusChanged 以 ActorId 为主体，扇出到与其共享任意会话的用户全集
type Event struct {
	// Type 事件类型
	Type EventType `json:"type"`

	// ConversationId 事件所属会话 UUID（UserStatusChanged 为空）
	ConversationId string `json:"conversation_id"`

	// ActorId 触发事件的用户 UUID
	// TypingIndicator 和 UserStatusChanged 按此排除当事人自身
	ActorId string `json:"actor_id"`

	// MessageId 关联消息雪花 ID，仅 NewMessage 携带
	// 网关写协程按此在推送成功后补记送达回执，0 表示无需回执
	MessageId int64 `json:"message_id,string"`

	// Payload 事件负载，由生产方提供组装完毕的 DTO，引擎不回查领域状态
	Payload any `json:"payload"`

	// Timestamp 事件产生时间
	Timestamp time.Time `json:"timestamp"`
}

// Envelope 推送给前端的事件信封
type Envelope struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
	Timestamp string    `json:"timestamp"`
}
