// Package model 定义数据库实体模型
// 本文件定义会话模型，一个会话对应一个单聊或群聊线程
package model

import (
	"database/sql"

	"gorm.io/gorm"
)

// 会话类型
const (
	ConversationTypePrivate int8 = 0 // 单聊
	ConversationTypeGroup   int8 = 1 // 群聊
)

// Conversation 会话模型
// 对应数据库 conversation 表
type Conversation struct {
	gorm.Model

	// Uuid 会话唯一标识
	// 格式：C + 时间戳随机字符串
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(20);comment:会话uuid"`

	// Type 会话类型，0.单聊，1.群聊
	Type int8 `gorm:"column:type;not null;comment:会话类型，0.单聊，1.群聊"`

	// Name 会话名称
	// 单聊时冗余存储对方昵称，群聊时为群名
	Name string `gorm:"column:name;type:varchar(30);not null;comment:会话名称"`

	// Avatar 会话头像
	Avatar string `gorm:"column:avatar;type:char(255);default:default_avatar.png;not null;comment:头像"`

	// OwnerId 创建者用户 UUID
	OwnerId string `gorm:"column:owner_id;index;type:char(20);not null;comment:创建者uuid"`

	// LastMessage 最新消息内容摘要，用于会话列表展示
	LastMessage string `gorm:"column:last_message;type:TEXT;comment:最新的消息"`

	// LastMessageAt 最后消息时间，用于会话列表排序
	LastMessageAt sql.NullTime `gorm:"column:last_message_at;type:datetime;comment:最近消息时间"`
}

// TableName 指定表名
func (Conversation) TableName() string {
	return "conversation"
}
