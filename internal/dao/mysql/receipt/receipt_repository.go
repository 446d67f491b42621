// Package receipt 提供消息回执数据访问层的具体实现
// 回执记录的幂等插入依赖 (message_id, recipient_id) 唯一约束，
// 单条记录的条件更新依赖数据库行级锁，不在应用层加全局锁
package receipt

import (
	"time"

	"lingyin_social_server/internal/dao/mysql/internal"
	"lingyin_social_server/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// receiptRepository MessageReceiptRepository 接口的实现
type receiptRepository struct {
	db *gorm.DB
}

// NewReceiptRepository 创建 MessageReceiptRepository 实例
func NewReceiptRepository(db *gorm.DB) *receiptRepository {
	return &receiptRepository{db: db}
}

// BatchInsertIgnore 批量插入回执
// 借助唯一约束 + DO NOTHING 实现幂等：重复事件导致的二次初始化是空操作
func (r *receiptRepository) BatchInsertIgnore(receipts []model.MessageReceipt) error {
	if len(receipts) == 0 {
		return nil
	}
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&receipts).Error; err != nil {
		return internal.WrapDBError(err, "初始化消息回执")
	}
	return nil
}

// MarkDelivered 标记送达
// WHERE delivered = false 保证重复标记是空操作，首次送达时间不被覆盖
func (r *receiptRepository) MarkDelivered(messageId int64, recipientId string, at time.Time) error {
	if err := r.db.Model(&model.MessageReceipt{}).
		Where("message_id = ? AND recipient_id = ? AND delivered = ?", messageId, recipientId, false).
		Updates(map[string]any{
			"delivered":    true,
			"delivered_at": at,
		}).Error; err != nil {
		return internal.WrapDBErrorf(err, "标记送达 message_id=%d recipient_id=%s", messageId, recipientId)
	}
	return nil
}

// MarkRead 标记已读
// WHERE read_at IS NULL 保证首次已读时间不被覆盖；
// COALESCE 在未送达时一并补记送达时间（已读蕴含送达）
func (r *receiptRepository) MarkRead(messageId int64, recipientId string, at time.Time) error {
	if err := r.db.Model(&model.MessageReceipt{}).
		Where("message_id = ? AND recipient_id = ? AND read_at IS NULL", messageId, recipientId).
		Updates(map[string]any{
			"read_at":      at,
			"delivered":    true,
			"delivered_at": gorm.Expr("COALESCE(delivered_at, ?)", at),
		}).Error; err != nil {
		return internal.WrapDBErrorf(err, "标记已读 message_id=%d recipient_id=%s", messageId, recipientId)
	}
	return nil
}

// Find 点查单条回执
func (r *receiptRepository) Find(messageId int64, recipientId string) (*model.MessageReceipt, error) {
	var receipt model.MessageReceipt
	if err := r.db.Where("message_id = ? AND recipient_id = ?", messageId, recipientId).
		First(&receipt).Error; err != nil {
		return nil, internal.WrapDBErrorf(err, "查询回执 message_id=%d recipient_id=%s", messageId, recipientId)
	}
	return &receipt, nil
}

// CountRead 统计消息的已读人数
func (r *receiptRepository) CountRead(messageId int64) (int64, error) {
	var count int64
	if err := r.db.Model(&model.MessageReceipt{}).
		Where("message_id = ? AND read_at IS NOT NULL", messageId).
		Count(&count).Error; err != nil {
		return 0, internal.WrapDBErrorf(err, "统计已读人数 message_id=%d", messageId)
	}
	return count, nil
}

// FindPendingMessageIds 查找会话内该接收者未送达或未读的消息 ID 列表
// 联表现查消息表，保证批量已读只覆盖当前已存在的消息
func (r *receiptRepository) FindPendingMessageIds(conversationUuid, recipientId string) ([]int64, error) {
	var messageIds []int64
	if err := r.db.Model(&model.MessageReceipt{}).
		Joins("JOIN message ON message.uuid = message_receipt.message_id").
		Where("message.conversation_id = ? AND message.deleted_at IS NULL", conversationUuid).
		Where("message_receipt.recipient_id = ?", recipientId).
		Where("message_receipt.delivered = ? OR message_receipt.read_at IS NULL", false).
		Pluck("message_receipt.message_id", &messageIds).Error; err != nil {
		return nil, internal.WrapDBErrorf(err, "查询待读消息 conversation_id=%s recipient_id=%s", conversationUuid, recipientId)
	}
	return messageIds, nil
}
