// Package model 定义数据库实体模型
// 本文件定义消息模型，用于存储聊天消息
package model

import (
	"gorm.io/gorm"
)

// 消息类型
const (
	MessageTypeText int8 = 0 // 文本消息
	MessageTypeFile int8 = 2 // 文件/图片消息
)

// Message 消息模型
// 对应数据库 message 表
type Message struct {
	gorm.Model

	// Uuid 消息唯一标识
	// 使用雪花算法生成的 int64 类型 ID
	Uuid int64 `gorm:"column:uuid;uniqueIndex;type:bigint;not null;comment:消息雪花ID"`

	// ConversationId 会话 UUID，标识消息属于哪个会话
	ConversationId string `gorm:"column:conversation_id;index;type:char(20);not null;comment:会话uuid"`

	// SenderId 发送者 UUID
	SenderId string `gorm:"column:sender_id;index;type:char(20);not null;comment:发送者uuid"`

	// SenderName 发送者昵称
	// 冗余存储，避免每次查询消息时都要关联用户表
	SenderName string `gorm:"column:sender_name;type:varchar(20);not null;comment:发送者昵称"`

	// SenderAvatar 发送者头像
	SenderAvatar string `gorm:"column:sender_avatar;type:varchar(255);comment:发送者头像"`

	// Type 消息类型，0.文本，2.文件
	Type int8 `gorm:"column:type;not null;comment:消息类型，0.文本，2.文件"`

	// Content 消息文本内容
	Content string `gorm:"column:content;type:TEXT;comment:消息内容"`

	// Url 资源 URL，文件类消息存储对象存储访问链接
	Url string `gorm:"column:url;type:char(255);comment:消息url"`

	// FileName 文件名
	FileName string `gorm:"column:file_name;type:varchar(50);comment:文件名"`

	// FileSize 文件大小，字符串格式如 "1.5MB"
	FileSize string `gorm:"column:file_size;type:char(20);comment:文件大小"`

	// Reactions 表情回应汇总
	// JSON 格式，如 {"👍":["U1","U2"],"❤":["U3"]}
	Reactions string `gorm:"column:reactions;type:TEXT;comment:表情回应"`

	// IsEdited 是否被编辑过，0.否，1.是
	IsEdited int8 `gorm:"column:is_edited;not null;comment:是否编辑过，0.否，1.是"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "message"
}
