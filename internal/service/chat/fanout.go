// fanout.go
// 核心职责：事件扇出引擎
// 1. 按事件类型穷举解析受众（会话参与者 / 当事人的联系人全集）
// 2. 逐个接收者查询在线状态，离线即丢弃（尽力而为、至多一次）
// 3. 单个接收者推送失败只记日志，不影响其余接收者
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ParticipantDirectory 参与者目录接口，由 directory 服务实现
type ParticipantDirectory interface {
	// GetActiveParticipants 获取会话的当前成员 UUID 列表
	GetActiveParticipants(conversationId string) ([]string, error)
	// GetContactsOf 获取与该用户共享至少一个会话的用户 UUID 全集（不含本人）
	GetContactsOf(userId string) ([]string, error)
}

// PresenceChecker 在线状态查询接口，由 presence.Registry 实现
type PresenceChecker interface {
	IsOnline(userId string) bool
	SessionOf(userId string) (string, bool)
}

// Pusher 推送接口，由 Gateway 实现
// messageId 非 0 时推送方在写入成功后补记送达回执
type Pusher interface {
	Push(sessionId string, envelope []byte, messageId int64) error
}

// FanOutEngine 事件扇出引擎
// 无状态组件，受众解析依赖目录服务，在线判定依赖注册表
type FanOutEngine struct {
	directory ParticipantDirectory
	presence  PresenceChecker
	pusher    Pusher
}

// NewFanOutEngine 创建扇出引擎实例
// Pusher 与引擎互相持有对方，网关构造完成后再通过 SetPusher 注入
func NewFanOutEngine(directory ParticipantDirectory, presence PresenceChecker) *FanOutEngine {
	return &FanOutEngine{
		directory: directory,
		presence:  presence,
	}
}

// SetPusher 注入推送实现
func (e *FanOutEngine) SetPusher(pusher Pusher) {
	e.pusher = pusher
}

// Notify 将事件扇出给其受众
// 事件通知是尽力而为的：受众解析失败整体丢弃，单个接收者失败单独丢弃，
// 任何失败都不回传给事件生产方
func (e *FanOutEngine) Notify(ctx context.Context, event Event) {
	if e.pusher == nil {
		zap.L().Error("扇出引擎未注入 Pusher，事件丢弃", zap.String("type", string(event.Type)))
		return
	}

	audience, err := e.resolveAudience(event)
	if err != nil {
		// 受众解析失败无法部分投递，整个事件丢弃
		zap.L().Warn("事件受众解析失败，事件丢弃",
			zap.String("type", string(event.Type)),
			zap.String("conversationId", event.ConversationId),
			zap.Error(err))
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// 信封只序列化一次，所有接收者复用同一份字节
	envelope := Envelope{
		Type:      event.Type,
		Data:      event.Payload,
		Timestamp: event.Timestamp.Format("2006-01-02 15:04:05"),
	}
	jsonEnvelope, err := json.Marshal(envelope)
	if err != nil {
		zap.L().Error("事件信封序列化失败", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}

	for _, userId := range audience {
		// 离线即丢弃，不做补发
		sessionId, ok := e.presence.SessionOf(userId)
		if !ok {
			continue
		}
		if err := e.pusher.Push(sessionId, jsonEnvelope, event.MessageId); err != nil {
			// 单个接收者失败只影响自己
			zap.L().Warn("事件推送失败",
				zap.String("type", string(event.Type)),
				zap.String("userId", userId),
				zap.Error(err))
		}
	}
}

// resolveAudience 按事件类型解析受众
// 穷举所有事件类型，未知类型视为编程错误并丢弃
func (e *FanOutEngine) resolveAudience(event Event) ([]string, error) {
	switch event.Type {
	case EventTypingIndicator:
		// 正在输入只发给其他成员，当事人自己不需要看到
		participants, err := e.directory.GetActiveParticipants(event.ConversationId)
		if err != nil {
			return nil, err
		}
		return excludeUser(participants, event.ActorId), nil

	case EventUserStatusChanged:
		// 上下线扩散到与当事人共享任意会话的用户全集
		return e.directory.GetContactsOf(event.ActorId)

	case EventNewMessage, EventMessageUpdated, EventMessageDeleted,
		EventReactionUpdated, EventReadStatusUpdated, EventChatReadUpdated,
		EventNewChat, EventChatUpdated, EventChatDeleted, EventParticipantLeft:
		// 其余事件发给会话全体成员，含当事人（多端同步）
		return e.directory.GetActiveParticipants(event.ConversationId)

	default:
		return nil, fmt.Errorf("未知事件类型: %s", event.Type)
	}
}

// excludeUser 从受众列表中剔除指定用户
func excludeUser(userIds []string, excludeId string) []string {
	result := make([]string, 0, len(userIds))
	for _, id := range userIds {
		if id != excludeId {
			result = append(result, id)
		}
	}
	return result
}
