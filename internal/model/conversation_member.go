// Package model 定义数据库实体模型
// 本文件定义会话成员模型，是参与者目录的持久化来源
package model

import (
	"database/sql"

	"gorm.io/gorm"
)

// 成员角色
const (
	MemberRoleNormal int8 = 0 // 普通成员
	MemberRoleOwner  int8 = 1 // 创建者/群主
)

// ConversationMember 会话成员模型
// 对应数据库 conversation_member 表
// (conversation_id, user_id) 上的唯一索引保证同一用户在同一会话中只有一条成员记录
type ConversationMember struct {
	gorm.Model

	// ConversationId 会话 UUID
	ConversationId string `gorm:"column:conversation_id;uniqueIndex:idx_conv_user;type:char(20);not null;comment:会话uuid"`

	// UserId 成员用户 UUID
	UserId string `gorm:"column:user_id;uniqueIndex:idx_conv_user;index;type:char(20);not null;comment:成员uuid"`

	// Role 成员角色，0.普通成员，1.群主
	Role int8 `gorm:"column:role;not null;comment:角色，0.普通成员，1.群主"`

	// IsMuted 是否被禁言，0.否，1.是
	IsMuted int8 `gorm:"column:is_muted;not null;comment:是否禁言，0.否，1.是"`

	// LastSeenAt 成员最近一次已读整个会话的时间
	// 未读数定义为 created_at 严格大于该时间的他人消息数；
	// 恰好等于 LastSeenAt 的消息视为已读
	LastSeenAt sql.NullTime `gorm:"column:last_seen_at;type:datetime;comment:最近已读时间"`
}

// TableName 指定表名
func (ConversationMember) TableName() string {
	return "conversation_member"
}
