// Package mysql 定义数据访问层接口和聚合结构
// 采用 Repository 模式将数据访问逻辑与业务逻辑分离
// 所有 Repository 接口在此文件定义，具体实现在各自的子包中
package mysql

import (
	"time"

	"lingyin_social_server/internal/model"
)

// ==================== Repository 接口定义 ====================

// UserRepository 用户数据访问接口
type UserRepository interface {
	// FindByUuid 根据 UUID 查找用户
	FindByUuid(uuid string) (*model.UserInfo, error)
	// FindByTelephone 根据手机号查找用户
	FindByTelephone(telephone string) (*model.UserInfo, error)
	// FindByUuids 批量根据 UUID 查找用户
	FindByUuids(uuids []string) ([]model.UserInfo, error)
	// CreateUser 创建新用户
	CreateUser(user *model.UserInfo) error
	// UpdateUserInfo 更新用户信息
	UpdateUserInfo(user *model.UserInfo) error
	// UpdateOnlineState 记录用户上线/离线时间
	UpdateOnlineState(uuid string, at time.Time, online bool) error
}

// ConversationRepository 会话数据访问接口
type ConversationRepository interface {
	// FindByUuid 根据 UUID 查找会话
	FindByUuid(uuid string) (*model.Conversation, error)
	// FindByUuids 批量根据 UUID 查找会话
	FindByUuids(uuids []string) ([]model.Conversation, error)
	// Create 创建新会话
	Create(conversation *model.Conversation) error
	// Update 更新会话信息
	Update(conversation *model.Conversation) error
	// UpdateLastMessage 更新会话的最新消息摘要
	UpdateLastMessage(uuid string, preview string, at time.Time) error
	// SoftDeleteByUuid 软删除会话
	SoftDeleteByUuid(uuid string) error
}

// ConversationMemberRepository 会话成员数据访问接口
// 参与者目录的持久化来源
type ConversationMemberRepository interface {
	// FindByConversationUuid 查找会话的所有成员记录
	FindByConversationUuid(conversationUuid string) ([]model.ConversationMember, error)
	// FindUserIdsByConversationUuid 查找会话的所有成员 UUID
	FindUserIdsByConversationUuid(conversationUuid string) ([]string, error)
	// FindConversationUuidsByUserId 查找用户参与的所有会话 UUID
	FindConversationUuidsByUserId(userId string) ([]string, error)
	// FindMember 查找单条成员记录
	FindMember(conversationUuid, userId string) (*model.ConversationMember, error)
	// CreateMembers 批量添加成员
	CreateMembers(members []model.ConversationMember) error
	// UpdateLastSeenAt 更新成员的最近已读时间
	UpdateLastSeenAt(conversationUuid, userId string, at time.Time) error
	// DeleteMember 移除单个成员
	DeleteMember(conversationUuid, userId string) error
	// DeleteByConversationUuid 移除会话的所有成员
	DeleteByConversationUuid(conversationUuid string) error
}

// MessageRepository 消息数据访问接口
type MessageRepository interface {
	// FindByUuid 根据雪花 ID 查找消息
	FindByUuid(uuid int64) (*model.Message, error)
	// FindByConversationUuid 查找会话的全部消息，按创建时间升序
	FindByConversationUuid(conversationUuid string) ([]model.Message, error)
	// Create 创建新消息
	Create(message *model.Message) error
	// UpdateContent 更新消息内容并标记为已编辑
	UpdateContent(uuid int64, content string) error
	// UpdateReactions 更新消息的表情回应汇总
	UpdateReactions(uuid int64, reactions string) error
	// SoftDeleteByUuid 软删除消息（回执随消息级联删除由存储层保证）
	SoftDeleteByUuid(uuid int64) error
	// CountSentAfter 统计会话内 created_at 严格晚于 after 且发送者不是
	// excludeSenderId 的消息数，用于未读数计算
	CountSentAfter(conversationUuid, excludeSenderId string, after time.Time) (int64, error)
}

// MessageReceiptRepository 消息回执数据访问接口
// (message_id, recipient_id) 唯一约束由表结构保证，重复插入静默忽略
type MessageReceiptRepository interface {
	// BatchInsertIgnore 批量插入回执，已存在的 (message_id, recipient_id) 对跳过
	BatchInsertIgnore(receipts []model.MessageReceipt) error
	// MarkDelivered 标记送达，已送达时为空操作
	MarkDelivered(messageId int64, recipientId string, at time.Time) error
	// MarkRead 标记已读，未送达时一并补记送达；已读时为空操作（首次已读时间不被覆盖）
	MarkRead(messageId int64, recipientId string, at time.Time) error
	// Find 点查单条回执
	Find(messageId int64, recipientId string) (*model.MessageReceipt, error)
	// CountRead 统计消息的已读人数
	CountRead(messageId int64) (int64, error)
	// FindPendingMessageIds 查找会话内该接收者未送达或未读的消息 ID 列表
	// 每次调用现查消息列表，不依赖快照
	FindPendingMessageIds(conversationUuid, recipientId string) ([]int64, error)
}
