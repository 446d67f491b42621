// Package member 提供会话成员数据访问层的具体实现
package member

import (
	"time"

	"lingyin_social_server/internal/dao/mysql/internal"
	"lingyin_social_server/internal/model"

	"gorm.io/gorm"
)

// memberRepository ConversationMemberRepository 接口的实现
type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository 创建 ConversationMemberRepository 实例
func NewMemberRepository(db *gorm.DB) *memberRepository {
	return &memberRepository{db: db}
}

// FindByConversationUuid 查找会话的所有成员记录
func (r *memberRepository) FindByConversationUuid(conversationUuid string) ([]model.ConversationMember, error) {
	var members []model.ConversationMember
	if err := r.db.Where("conversation_id = ?", conversationUuid).Find(&members).Error; err != nil {
		return nil, internal.WrapDBErrorf(err, "查询会话成员 conversation_id=%s", conversationUuid)
	}
	return members, nil
}

// FindUserIdsByConversationUuid 查找会话的所有成员 UUID
func (r *memberRepository) FindUserIdsByConversationUuid(conversationUuid string) ([]string, error) {
	var userIds []string
	if err := r.db.Model(&model.ConversationMember{}).
		Where("conversation_id = ?", conversationUuid).
		Pluck("user_id", &userIds).Error; err != nil {
		return nil, internal.WrapDBErrorf(err, "查询会话成员id conversation_id=%s", conversationUuid)
	}
	return userIds, nil
}

// FindConversationUuidsByUserId 查找用户参与的所有会话 UUID
func (r *memberRepository) FindConversationUuidsByUserId(userId string) ([]string, error) {
	var conversationUuids []string
	if err := r.db.Model(&model.ConversationMember{}).
		Where("user_id = ?", userId).
		Pluck("conversation_id", &conversationUuids).Error; err != nil {
		return nil, internal.WrapDBErrorf(err, "查询用户会话 user_id=%s", userId)
	}
	return conversationUuids, nil
}

// FindMember 查找单条成员记录
func (r *memberRepository) FindMember(conversationUuid, userId string) (*model.ConversationMember, error) {
	var member model.ConversationMember
	if err := r.db.Where("conversation_id = ? AND user_id = ?", conversationUuid, userId).
		First(&member).Error; err != nil {
		return nil, internal.WrapDBErrorf(err, "查询成员 conversation_id=%s user_id=%s", conversationUuid, userId)
	}
	return &member, nil
}

// CreateMembers 批量添加成员
func (r *memberRepository) CreateMembers(members []model.ConversationMember) error {
	if len(members) == 0 {
		return nil
	}
	if err := r.db.Create(&members).Error; err != nil {
		return internal.WrapDBError(err, "添加会话成员")
	}
	return nil
}

// UpdateLastSeenAt 更新成员的最近已读时间
func (r *memberRepository) UpdateLastSeenAt(conversationUuid, userId string, at time.Time) error {
	if err := r.db.Model(&model.ConversationMember{}).
		Where("conversation_id = ? AND user_id = ?", conversationUuid, userId).
		Update("last_seen_at", at).Error; err != nil {
		return internal.WrapDBErrorf(err, "更新已读时间 conversation_id=%s user_id=%s", conversationUuid, userId)
	}
	return nil
}

// DeleteMember 移除单个成员
func (r *memberRepository) DeleteMember(conversationUuid, userId string) error {
	if err := r.db.Where("conversation_id = ? AND user_id = ?", conversationUuid, userId).
		Delete(&model.ConversationMember{}).Error; err != nil {
		return internal.WrapDBErrorf(err, "移除成员 conversation_id=%s user_id=%s", conversationUuid, userId)
	}
	return nil
}

// DeleteByConversationUuid 移除会话的所有成员
func (r *memberRepository) DeleteByConversationUuid(conversationUuid string) error {
	if err := r.db.Where("conversation_id = ?", conversationUuid).
		Delete(&model.ConversationMember{}).Error; err != nil {
		return internal.WrapDBErrorf(err, "移除会话全部成员 conversation_id=%s", conversationUuid)
	}
	return nil
}
