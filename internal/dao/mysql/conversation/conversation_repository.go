// Package conversation 提供会话相关数据访问层的具体实现
package conversation

import (
	"time"

	"lingyin_social_server/internal/dao/mysql/internal"
	"lingyin_social_server/internal/model"

	"gorm.io/gorm"
)

// conversationRepository ConversationRepository 接口的实现
type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建 ConversationRepository 实例
func NewConversationRepository(db *gorm.DB) *conversationRepository {
	return &conversationRepository{db: db}
}

// FindByUuid 根据 UUID 查找会话
func (r *conversationRepository) FindByUuid(uuid string) (*model.Conversation, error) {
	var conversation model.Conversation
	if err := r.db.Where("uuid = ?", uuid).First(&conversation).Error; err != nil {
		return nil, internal.WrapDBErrorf(err, "查询会话 uuid=%s", uuid)
	}
	return &conversation, nil
}

// FindByUuids 批量根据 UUID 查找会话
func (r *conversationRepository) FindByUuids(uuids []string) ([]model.Conversation, error) {
	var conversations []model.Conversation
	if len(uuids) == 0 {
		return conversations, nil
	}
	if err := r.db.Where("uuid IN ?", uuids).Find(&conversations).Error; err != nil {
		return nil, internal.WrapDBError(err, "批量查询会话")
	}
	return conversations, nil
}

// Create 创建新会话
func (r *conversationRepository) Create(conversation *model.Conversation) error {
	if err := r.db.Create(conversation).Error; err != nil {
		return internal.WrapDBError(err, "创建会话")
	}
	return nil
}

// Update 更新会话信息
func (r *conversationRepository) Update(conversation *model.Conversation) error {
	if err := r.db.Save(conversation).Error; err != nil {
		return internal.WrapDBErrorf(err, "更新会话 uuid=%s", conversation.Uuid)
	}
	return nil
}

// UpdateLastMessage 更新会话的最新消息摘要
func (r *conversationRepository) UpdateLastMessage(uuid string, preview string, at time.Time) error {
	if err := r.db.Model(&model.Conversation{}).Where("uuid = ?", uuid).
		Updates(map[string]any{
			"last_message":    preview,
			"last_message_at": at,
		}).Error; err != nil {
		return internal.WrapDBErrorf(err, "更新会话最新消息 uuid=%s", uuid)
	}
	return nil
}

// SoftDeleteByUuid 软删除会话
func (r *conversationRepository) SoftDeleteByUuid(uuid string) error {
	if err := r.db.Where("uuid = ?", uuid).Delete(&model.Conversation{}).Error; err != nil {
		return internal.WrapDBErrorf(err, "删除会话 uuid=%s", uuid)
	}
	return nil
}
