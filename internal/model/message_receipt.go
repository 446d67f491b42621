// Package model 定义数据库实体模型
// 本文件定义消息回执模型，逐接收者记录送达和已读状态
package model

import (
	"database/sql"

	"gorm.io/gorm"
)

// MessageReceipt 消息回执模型
// 对应数据库 message_receipt 表
// 消息入库时为除发送者外的每个会话成员各创建一条记录；
// (message_id, recipient_id) 上的唯一索引保证重复初始化是幂等的
type MessageReceipt struct {
	gorm.Model

	// MessageId 消息雪花 ID
	MessageId int64 `gorm:"column:message_id;uniqueIndex:idx_msg_recipient;index;type:bigint;not null;comment:消息雪花ID"`

	// RecipientId 接收者用户 UUID
	RecipientId string `gorm:"column:recipient_id;uniqueIndex:idx_msg_recipient;index;type:char(20);not null;comment:接收者uuid"`

	// Delivered 是否已送达
	Delivered bool `gorm:"column:delivered;not null;comment:是否已送达"`

	// DeliveredAt 送达时间
	DeliveredAt sql.NullTime `gorm:"column:delivered_at;type:datetime;comment:送达时间"`

	// ReadAt 已读时间
	// 非空蕴含 Delivered 为 true（已读必先送达，标记已读时自动补送达）
	ReadAt sql.NullTime `gorm:"column:read_at;type:datetime;comment:已读时间"`
}

// TableName 指定表名
func (MessageReceipt) TableName() string {
	return "message_receipt"
}
