// Package message 提供消息相关数据访问层的具体实现
package message

import (
	"time"

	"lingyin_social_server/internal/dao/mysql/internal"
	"lingyin_social_server/internal/model"

	"gorm.io/gorm"
)

// messageRepository MessageRepository 接口的实现
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建 MessageRepository 实例
func NewMessageRepository(db *gorm.DB) *messageRepository {
	return &messageRepository{db: db}
}

// FindByUuid 根据雪花 ID 查找消息
func (r *messageRepository) FindByUuid(uuid int64) (*model.Message, error) {
	var message model.Message
	if err := r.db.Where("uuid = ?", uuid).First(&message).Error; err != nil {
		return nil, internal.WrapDBErrorf(err, "查询消息 uuid=%d", uuid)
	}
	return &message, nil
}

// FindByConversationUuid 查找会话的全部消息，按创建时间升序
func (r *messageRepository) FindByConversationUuid(conversationUuid string) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.Where("conversation_id = ?", conversationUuid).
		Order("created_at ASC").Find(&messages).Error; err != nil {
		return nil, internal.WrapDBErrorf(err, "查询会话消息 conversation_id=%s", conversationUuid)
	}
	return messages, nil
}

// Create 创建新消息
func (r *messageRepository) Create(message *model.Message) error {
	if err := r.db.Create(message).Error; err != nil {
		return internal.WrapDBError(err, "创建消息")
	}
	return nil
}

// UpdateContent 更新消息内容并标记为已编辑
func (r *messageRepository) UpdateContent(uuid int64, content string) error {
	if err := r.db.Model(&model.Message{}).Where("uuid = ?", uuid).
		Updates(map[string]any{
			"content":   content,
			"is_edited": 1,
		}).Error; err != nil {
		return internal.WrapDBErrorf(err, "更新消息内容 uuid=%d", uuid)
	}
	return nil
}

// UpdateReactions 更新消息的表情回应汇总
func (r *messageRepository) UpdateReactions(uuid int64, reactions string) error {
	if err := r.db.Model(&model.Message{}).Where("uuid = ?", uuid).
		Update("reactions", reactions).Error; err != nil {
		return internal.WrapDBErrorf(err, "更新消息表情回应 uuid=%d", uuid)
	}
	return nil
}

// SoftDeleteByUuid 软删除消息
func (r *messageRepository) SoftDeleteByUuid(uuid int64) error {
	if err := r.db.Where("uuid = ?", uuid).Delete(&model.Message{}).Error; err != nil {
		return internal.WrapDBErrorf(err, "删除消息 uuid=%d", uuid)
	}
	return nil
}

// CountSentAfter 统计会话内 created_at 严格晚于 after 且发送者不是 excludeSenderId 的消息数
// 边界语义：created_at 恰好等于 after 的消息不计入（视为已读）
func (r *messageRepository) CountSentAfter(conversationUuid, excludeSenderId string, after time.Time) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND created_at > ?",
			conversationUuid, excludeSenderId, after).
		Count(&count).Error; err != nil {
		return 0, internal.WrapDBErrorf(err, "统计未读消息 conversation_id=%s", conversationUuid)
	}
	return count, nil
}
