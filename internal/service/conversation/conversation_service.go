// Package conversation 实现会话业务逻辑
// 会话的创建/修改/删除、成员进出和会话列表（含未读数）。
// 所有写操作遵循先持久化后扇出事件的顺序，成员变更后负责失效参与者目录缓存
package conversation

import (
	"context"
	"time"

	"lingyin_social_server/internal/dao/mysql"
	"lingyin_social_server/internal/dto/request"
	"lingyin_social_server/internal/dto/respond"
	"lingyin_social_server/internal/model"
	"lingyin_social_server/internal/service/chat"
	"lingyin_social_server/internal/service/directory"
	"lingyin_social_server/internal/service/receipt"
	"lingyin_social_server/pkg/errorx"
	"lingyin_social_server/pkg/util/random"

	"go.uber.org/zap"
)

// Service 会话服务接口
type Service interface {
	// CreateConversation 创建会话，创建者自动成为群主
	CreateConversation(ownerId string, req request.CreateConversationRequest) (*respond.ConversationRespond, error)
	// UpdateConversation 修改会话名称/头像，仅群主可用
	UpdateConversation(userId string, req request.UpdateConversationRequest) error
	// DeleteConversation 删除会话，仅群主可用
	DeleteConversation(userId string, conversationId string) error
	// LeaveConversation 主动退出会话，群主不可退出只能删除
	LeaveConversation(userId string, conversationId string) error
	// AddMembers 添加成员，仅群主可用
	AddMembers(userId string, req request.AddMembersRequest) error
	// RemoveMember 移除成员，仅群主可用
	RemoveMember(userId string, req request.RemoveMemberRequest) error
	// GetConversationList 获取用户的会话列表，携带各自的未读数
	GetConversationList(userId string) ([]respond.ConversationRespond, error)
	// GetConversationDetail 获取单个会话详情（含成员列表）
	GetConversationDetail(userId string, conversationId string) (*respond.ConversationRespond, error)
}

// conversationService Service 接口实现
type conversationService struct {
	conversationRepo mysql.ConversationRepository
	memberRepo       mysql.ConversationMemberRepository
	tracker          receipt.Tracker
	directory        directory.Service
	engine           *chat.FanOutEngine
}

// NewService 创建会话服务实例
func NewService(
	conversationRepo mysql.ConversationRepository,
	memberRepo mysql.ConversationMemberRepository,
	tracker receipt.Tracker,
	directorySvc directory.Service,
	engine *chat.FanOutEngine,
) Service {
	return &conversationService{
		conversationRepo: conversationRepo,
		memberRepo:       memberRepo,
		tracker:          tracker,
		directory:        directorySvc,
		engine:           engine,
	}
}

// toConversationRespond 模型转响应 DTO
func toConversationRespond(conversation *model.Conversation) *respond.ConversationRespond {
	rsp := &respond.ConversationRespond{
		ConversationId: conversation.Uuid,
		Type:           conversation.Type,
		Name:           conversation.Name,
		Avatar:         conversation.Avatar,
		OwnerId:        conversation.OwnerId,
		LastMessage:    conversation.LastMessage,
	}
	if conversation.LastMessageAt.Valid {
		rsp.LastMessageAt = conversation.LastMessageAt.Time.Format("2006-01-02 15:04:05")
	}
	return rsp
}

// requireOwner 校验用户是会话群主
func (s *conversationService) requireOwner(conversationId, userId string) (*model.Conversation, error) {
	conversation, err := s.conversationRepo.FindByUuid(conversationId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeNotFound, "会话不存在")
		}
		return nil, err
	}
	if conversation.OwnerId != userId {
		return nil, errorx.ErrForbidden
	}
	return conversation, nil
}

// CreateConversation 创建会话
// 成员记录和会话记录先落库，new_chat 事件随后扩散给全体成员（含创建者）
func (s *conversationService) CreateConversation(ownerId string, req request.CreateConversationRequest) (*respond.ConversationRespond, error) {
	conversation := model.Conversation{
		Uuid:    "C" + random.GetNowAndLenRandomString(13),
		Type:    req.Type,
		Name:    req.Name,
		Avatar:  req.Avatar,
		OwnerId: ownerId,
	}
	if err := s.conversationRepo.Create(&conversation); err != nil {
		return nil, err
	}

	members := make([]model.ConversationMember, 0, len(req.MemberIds)+1)
	members = append(members, model.ConversationMember{
		ConversationId: conversation.Uuid,
		UserId:         ownerId,
		Role:           model.MemberRoleOwner,
	})
	memberIds := []string{ownerId}
	for _, memberId := range req.MemberIds {
		if memberId == ownerId {
			continue
		}
		members = append(members, model.ConversationMember{
			ConversationId: conversation.Uuid,
			UserId:         memberId,
			Role:           model.MemberRoleNormal,
		})
		memberIds = append(memberIds, memberId)
	}
	if err := s.memberRepo.CreateMembers(members); err != nil {
		return nil, err
	}

	rsp := toConversationRespond(&conversation)
	rsp.MemberIds = memberIds

	s.engine.Notify(context.Background(), chat.Event{
		Type:           chat.EventNewChat,
		ConversationId: conversation.Uuid,
		ActorId:        ownerId,
		Payload:        rsp,
		Timestamp:      time.Now(),
	})
	zap.L().Info("会话创建", zap.String("conversationId", conversation.Uuid), zap.String("ownerId", ownerId))
	return rsp, nil
}

// UpdateConversation 修改会话信息
func (s *conversationService) UpdateConversation(userId string, req request.UpdateConversationRequest) error {
	conversation, err := s.requireOwner(req.ConversationId, userId)
	if err != nil {
		return err
	}

	if req.Name != "" {
		conversation.Name = req.Name
	}
	if req.Avatar != "" {
		conversation.Avatar = req.Avatar
	}
	if err := s.conversationRepo.Update(conversation); err != nil {
		return err
	}

	s.engine.Notify(context.Background(), chat.Event{
		Type:           chat.EventChatUpdated,
		ConversationId: req.ConversationId,
		ActorId:        userId,
		Payload:        toConversationRespond(conversation),
		Timestamp:      time.Now(),
	})
	return nil
}

// DeleteConversation 删除会话
// 会话先软删除并扩散 chat_deleted，成员记录最后清理：
// 扇出引擎解析受众时成员表必须还查得到人
func (s *conversationService) DeleteConversation(userId string, conversationId string) error {
	if _, err := s.requireOwner(conversationId, userId); err != nil {
		return err
	}

	if err := s.conversationRepo.SoftDeleteByUuid(conversationId); err != nil {
		return err
	}

	s.engine.Notify(context.Background(), chat.Event{
		Type:           chat.EventChatDeleted,
		ConversationId: conversationId,
		ActorId:        userId,
		Payload:        respond.ConversationDeletedRespond{ConversationId: conversationId},
		Timestamp:      time.Now(),
	})

	if err := s.memberRepo.DeleteByConversationUuid(conversationId); err != nil {
		zap.L().Error("清理会话成员失败", zap.String("conversationId", conversationId), zap.Error(err))
	}
	s.directory.InvalidateConversation(conversationId)
	return nil
}

// LeaveConversation 主动退出会话
// 成员记录先删除，participant_left 扩散给剩余成员，退出者自己收不到
func (s *conversationService) LeaveConversation(userId string, conversationId string) error {
	conversation, err := s.conversationRepo.FindByUuid(conversationId)
	if err != nil {
		return err
	}
	if conversation.OwnerId == userId {
		return errorx.New(errorx.CodeForbidden, "群主不能退出会话，请删除会话")
	}
	if _, err := s.memberRepo.FindMember(conversationId, userId); err != nil {
		if errorx.IsNotFound(err) {
			return errorx.ErrForbidden
		}
		return err
	}

	if err := s.memberRepo.DeleteMember(conversationId, userId); err != nil {
		return err
	}
	s.directory.InvalidateConversation(conversationId)

	s.engine.Notify(context.Background(), chat.Event{
		Type:           chat.EventParticipantLeft,
		ConversationId: conversationId,
		ActorId:        userId,
		Payload: respond.ParticipantLeftRespond{
			ConversationId: conversationId,
			UserId:         userId,
		},
		Timestamp: time.Now(),
	})
	return nil
}

// AddMembers 添加成员
// 依赖 (conversation_id, user_id) 唯一索引，重复添加由存储层静默忽略
func (s *conversationService) AddMembers(userId string, req request.AddMembersRequest) error {
	conversation, err := s.requireOwner(req.ConversationId, userId)
	if err != nil {
		return err
	}

	members := make([]model.ConversationMember, 0, len(req.MemberIds))
	for _, memberId := range req.MemberIds {
		members = append(members, model.ConversationMember{
			ConversationId: req.ConversationId,
			UserId:         memberId,
			Role:           model.MemberRoleNormal,
		})
	}
	if err := s.memberRepo.CreateMembers(members); err != nil {
		return err
	}
	s.directory.InvalidateConversation(req.ConversationId)

	s.engine.Notify(context.Background(), chat.Event{
		Type:           chat.EventChatUpdated,
		ConversationId: req.ConversationId,
		ActorId:        userId,
		Payload:        toConversationRespond(conversation),
		Timestamp:      time.Now(),
	})
	return nil
}

// RemoveMember 移除成员
func (s *conversationService) RemoveMember(userId string, req request.RemoveMemberRequest) error {
	if _, err := s.requireOwner(req.ConversationId, userId); err != nil {
		return err
	}
	if req.UserId == userId {
		return errorx.New(errorx.CodeForbidden, "群主不能移除自己")
	}

	if err := s.memberRepo.DeleteMember(req.ConversationId, req.UserId); err != nil {
		return err
	}
	s.directory.InvalidateConversation(req.ConversationId)

	s.engine.Notify(context.Background(), chat.Event{
		Type:           chat.EventParticipantLeft,
		ConversationId: req.ConversationId,
		ActorId:        userId,
		Payload: respond.ParticipantLeftRespond{
			ConversationId: req.ConversationId,
			UserId:         req.UserId,
		},
		Timestamp: time.Now(),
	})
	return nil
}

// GetConversationList 获取会话列表
// 未读数逐会话计算，单个会话失败按 0 处理不影响整个列表
func (s *conversationService) GetConversationList(userId string) ([]respond.ConversationRespond, error) {
	conversationIds, err := s.memberRepo.FindConversationUuidsByUserId(userId)
	if err != nil {
		return nil, err
	}
	if len(conversationIds) == 0 {
		return []respond.ConversationRespond{}, nil
	}

	conversations, err := s.conversationRepo.FindByUuids(conversationIds)
	if err != nil {
		return nil, err
	}

	list := make([]respond.ConversationRespond, 0, len(conversations))
	for i := range conversations {
		rsp := toConversationRespond(&conversations[i])
		count, err := s.tracker.UnreadCount(conversations[i].Uuid, userId)
		if err != nil {
			zap.L().Error("计算未读数失败", zap.String("conversationId", conversations[i].Uuid), zap.Error(err))
		}
		rsp.UnreadCount = count
		list = append(list, *rsp)
	}
	return list, nil
}

// GetConversationDetail 获取会话详情
func (s *conversationService) GetConversationDetail(userId string, conversationId string) (*respond.ConversationRespond, error) {
	if _, err := s.memberRepo.FindMember(conversationId, userId); err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.ErrForbidden
		}
		return nil, err
	}

	conversation, err := s.conversationRepo.FindByUuid(conversationId)
	if err != nil {
		return nil, err
	}

	rsp := toConversationRespond(conversation)
	memberIds, err := s.directory.GetActiveParticipants(conversationId)
	if err != nil {
		return nil, err
	}
	rsp.MemberIds = memberIds

	count, err := s.tracker.UnreadCount(conversationId, userId)
	if err == nil {
		rsp.UnreadCount = count
	}
	return rsp, nil
}
