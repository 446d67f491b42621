// Package chatmsg 实现消息业务逻辑
// 事件生产方：先完成持久化和回执初始化，再把事件交给扇出引擎，
// 保证接收者收到推送后回查 HTTP 接口一定能看到对应状态。
// 同时实现入站帧处理接口，WebSocket 帧经总线到达这里
package chatmsg

import (
	"context"
	"encoding/json"
	"time"

	"lingyin_social_server/internal/dao/mysql"
	myredis "lingyin_social_server/internal/dao/redis"
	"lingyin_social_server/internal/dto/request"
	"lingyin_social_server/internal/dto/respond"
	"lingyin_social_server/internal/model"
	"lingyin_social_server/internal/service/chat"
	"lingyin_social_server/internal/service/directory"
	"lingyin_social_server/internal/service/receipt"
	"lingyin_social_server/pkg/constants"
	"lingyin_social_server/pkg/errorx"
	"lingyin_social_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

// Service 消息服务接口
type Service interface {
	// SendMessage 发送消息：持久化、初始化回执、扇出 new_message 事件
	SendMessage(senderId string, req request.SendMessageRequest) (*respond.MessageRespond, error)
	// EditMessage 编辑消息内容，仅发送者可编辑
	EditMessage(senderId string, req request.EditMessageRequest) (*respond.MessageRespond, error)
	// DeleteMessage 删除消息，仅发送者可删除
	DeleteMessage(senderId string, req request.DeleteMessageRequest) error
	// UpdateReaction 添加/取消表情回应
	UpdateReaction(userId string, req request.ReactionRequest) error
	// Typing 扩散正在输入指示，不落库
	Typing(userId string, conversationId string) error
	// MarkRead 标记单条消息已读并扩散已读状态事件
	MarkRead(userId string, messageId int64) error
	// MarkConversationRead 标记整个会话已读并扩散会话已读事件
	MarkConversationRead(userId string, conversationId string) error
	// GetMessageList 拉取会话全量历史消息
	GetMessageList(userId string, conversationId string) ([]respond.MessageRespond, error)
	// GetMessageStatus 查询消息对某接收者的回执状态
	GetMessageStatus(messageId int64, recipientId string) (*respond.MessageStatusRespond, error)
}

// messageService Service 接口实现，同时实现 chat.FrameHandler
type messageService struct {
	messageRepo      mysql.MessageRepository
	memberRepo       mysql.ConversationMemberRepository
	conversationRepo mysql.ConversationRepository
	userRepo         mysql.UserRepository
	tracker          receipt.Tracker
	directory        directory.Service
	engine           *chat.FanOutEngine
	cacheService     myredis.AsyncCacheService
}

// NewService 创建消息服务实例
func NewService(
	messageRepo mysql.MessageRepository,
	memberRepo mysql.ConversationMemberRepository,
	conversationRepo mysql.ConversationRepository,
	userRepo mysql.UserRepository,
	tracker receipt.Tracker,
	directorySvc directory.Service,
	engine *chat.FanOutEngine,
	cacheService myredis.AsyncCacheService,
) *messageService {
	return &messageService{
		messageRepo:      messageRepo,
		memberRepo:       memberRepo,
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
		tracker:          tracker,
		directory:        directorySvc,
		engine:           engine,
		cacheService:     cacheService,
	}
}

// messageListCacheKey 会话历史消息缓存键
func messageListCacheKey(conversationId string) string {
	return "message_list_" + conversationId
}

// requireMember 校验用户是会话成员
func (s *messageService) requireMember(conversationId, userId string) error {
	if _, err := s.memberRepo.FindMember(conversationId, userId); err != nil {
		if errorx.IsNotFound(err) {
			return errorx.ErrForbidden
		}
		return err
	}
	return nil
}

// toMessageRespond 模型转响应 DTO
func toMessageRespond(message *model.Message) *respond.MessageRespond {
	return &respond.MessageRespond{
		MessageId:      message.Uuid,
		ConversationId: message.ConversationId,
		SenderId:       message.SenderId,
		SenderName:     message.SenderName,
		SenderAvatar:   message.SenderAvatar,
		Type:           message.Type,
		Content:        message.Content,
		Url:            message.Url,
		FileName:       message.FileName,
		FileSize:       message.FileSize,
		Reactions:      message.Reactions,
		IsEdited:       message.IsEdited == 1,
		CreatedAt:      message.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// SendMessage 发送消息
// 顺序约束：消息和回执先落库，事件扇出永远在持久化之后
func (s *messageService) SendMessage(senderId string, req request.SendMessageRequest) (*respond.MessageRespond, error) {
	if err := s.requireMember(req.ConversationId, senderId); err != nil {
		return nil, err
	}

	sender, err := s.userRepo.FindByUuid(senderId)
	if err != nil {
		return nil, err
	}

	message := model.Message{
		Uuid:           snowflake.GenerateID(),
		ConversationId: req.ConversationId,
		SenderId:       senderId,
		SenderName:     sender.Nickname,
		SenderAvatar:   sender.Avatar,
		Type:           req.Type,
		Content:        req.Content,
		Url:            req.Url,
		FileName:       req.FileName,
		FileSize:       req.FileSize,
	}
	if err := s.messageRepo.Create(&message); err != nil {
		return nil, err
	}

	// 会话摘要推进，列表页展示用
	preview := message.Content
	if message.Type != model.MessageTypeText {
		preview = message.FileName
	}
	if err := s.conversationRepo.UpdateLastMessage(req.ConversationId, preview, message.CreatedAt); err != nil {
		zap.L().Error("更新会话摘要失败", zap.String("conversationId", req.ConversationId), zap.Error(err))
	}

	// 除发送者外的每个成员各建一条回执
	participants, err := s.directory.GetActiveParticipants(req.ConversationId)
	if err != nil {
		return nil, err
	}
	recipients := make([]string, 0, len(participants))
	for _, userId := range participants {
		if userId != senderId {
			recipients = append(recipients, userId)
		}
	}
	if err := s.tracker.InitializeForMessage(message.Uuid, recipients); err != nil {
		return nil, err
	}

	messageRsp := toMessageRespond(&message)
	s.appendToMessageListCache(req.ConversationId, *messageRsp)
	s.tracker.InvalidateUnread(req.ConversationId)

	// 持久化完成，扩散事件；MessageId 随事件下发，推送成功后网关补记送达
	s.engine.Notify(context.Background(), chat.Event{
		Type:           chat.EventNewMessage,
		ConversationId: req.ConversationId,
		ActorId:        senderId,
		MessageId:      message.Uuid,
		Payload:        messageRsp,
		Timestamp:      message.CreatedAt,
	})
	return messageRsp, nil
}

// EditMessage 编辑消息
func (s *messageService) EditMessage(senderId string, req request.EditMessageRequest) (*respond.MessageRespond, error) {
	message, err := s.messageRepo.FindByUuid(req.MessageId)
	if err != nil {
		return nil, err
	}
	if message.SenderId != senderId {
		return nil, errorx.ErrForbidden
	}

	if err := s.messageRepo.UpdateContent(req.MessageId, req.Content); err != nil {
		return nil, err
	}
	message.Content = req.Content
	message.IsEdited = 1

	s.invalidateMessageListCache(message.ConversationId)

	messageRsp := toMessageRespond(message)
	s.engine.Notify(context.Background(), chat.Event{
		Type:           chat.EventMessageUpdated,
		ConversationId: message.ConversationId,
		ActorId:        senderId,
		Payload:        messageRsp,
		Timestamp:      time.Now(),
	})
	return messageRsp, nil
}

// DeleteMessage 删除消息
// 回执随消息级联删除，已读人数等后续查询一并消失
func (s *messageService) DeleteMessage(senderId string, req request.DeleteMessageRequest) error {
	message, err := s.messageRepo.FindByUuid(req.MessageId)
	if err != nil {
		return err
	}
	if message.SenderId != senderId {
		return errorx.ErrForbidden
	}

	if err := s.messageRepo.SoftDeleteByUuid(req.MessageId); err != nil {
		return err
	}

	s.invalidateMessageListCache(message.ConversationId)
	s.tracker.InvalidateUnread(message.ConversationId)

	s.engine.Notify(context.Background(), chat.Event{
		Type:           chat.EventMessageDeleted,
		ConversationId: message.ConversationId,
		ActorId:        senderId,
		Payload: respond.MessageDeletedRespond{
			MessageId:      req.MessageId,
			ConversationId: message.ConversationId,
		},
		Timestamp: time.Now(),
	})
	return nil
}

// UpdateReaction 表情回应
// Reactions 以 JSON 保存 emoji -> 用户uuid列表 的汇总，事件携带变更后的全量汇总
func (s *messageService) UpdateReaction(userId string, req request.ReactionRequest) error {
	message, err := s.messageRepo.FindByUuid(req.MessageId)
	if err != nil {
		return err
	}
	if err := s.requireMember(message.ConversationId, userId); err != nil {
		return err
	}

	reactions := make(map[string][]string)
	if message.Reactions != "" {
		if err := json.Unmarshal([]byte(message.Reactions), &reactions); err != nil {
			zap.L().Error("表情汇总反序列化失败", zap.Int64("messageId", req.MessageId), zap.Error(err))
			reactions = make(map[string][]string)
		}
	}

	users := reactions[req.Emoji]
	idx := -1
	for i, id := range users {
		if id == userId {
			idx = i
			break
		}
	}
	if req.Action == "add" && idx == -1 {
		reactions[req.Emoji] = append(users, userId)
	}
	if req.Action == "remove" && idx != -1 {
		users = append(users[:idx], users[idx+1:]...)
		if len(users) == 0 {
			delete(reactions, req.Emoji)
		} else {
			reactions[req.Emoji] = users
		}
	}

	data, err := json.Marshal(reactions)
	if err != nil {
		return err
	}
	if err := s.messageRepo.UpdateReactions(req.MessageId, string(data)); err != nil {
		return err
	}

	s.invalidateMessageListCache(message.ConversationId)

	s.engine.Notify(context.Background(), chat.Event{
		Type:           chat.EventReactionUpdated,
		ConversationId: message.ConversationId,
		ActorId:        userId,
		Payload: respond.ReactionRespond{
			MessageId:      req.MessageId,
			ConversationId: message.ConversationId,
			Reactions:      string(data),
		},
		Timestamp: time.Now(),
	})
	return nil
}

// Typing 正在输入指示
// 纯瞬态事件，不持久化，受众解析时排除当事人自己
func (s *messageService) Typing(userId string, conversationId string) error {
	if err := s.requireMember(conversationId, userId); err != nil {
		return err
	}
	s.engine.Notify(context.Background(), chat.Event{
		Type:           chat.EventTypingIndicator,
		ConversationId: conversationId,
		ActorId:        userId,
		Payload: respond.TypingRespond{
			ConversationId: conversationId,
			UserId:         userId,
		},
		Timestamp: time.Now(),
	})
	return nil
}

// MarkRead 标记单条消息已读
// 对自己发送的消息没有回执记录，标记是空操作也不扩散事件
func (s *messageService) MarkRead(userId string, messageId int64) error {
	message, err := s.messageRepo.FindByUuid(messageId)
	if err != nil {
		return err
	}
	if message.SenderId == userId {
		return nil
	}

	if err := s.tracker.MarkRead(messageId, userId); err != nil {
		return err
	}

	readCount, err := s.tracker.CountRead(messageId)
	if err != nil {
		zap.L().Error("统计已读人数失败", zap.Int64("messageId", messageId), zap.Error(err))
	}

	s.engine.Notify(context.Background(), chat.Event{
		Type:           chat.EventReadStatusUpdated,
		ConversationId: message.ConversationId,
		ActorId:        userId,
		Payload: respond.ReadStatusRespond{
			MessageId:      messageId,
			ConversationId: message.ConversationId,
			ReaderId:       userId,
			ReadCount:      readCount,
		},
		Timestamp: time.Now(),
	})
	return nil
}

// MarkConversationRead 会话级批量已读
func (s *messageService) MarkConversationRead(userId string, conversationId string) error {
	if err := s.requireMember(conversationId, userId); err != nil {
		return err
	}

	readAt, err := s.tracker.MarkAllRead(conversationId, userId)
	if err != nil {
		return err
	}

	s.engine.Notify(context.Background(), chat.Event{
		Type:           chat.EventChatReadUpdated,
		ConversationId: conversationId,
		ActorId:        userId,
		Payload: respond.ConversationReadRespond{
			ConversationId: conversationId,
			UserId:         userId,
			ReadAt:         readAt.Format("2006-01-02 15:04:05"),
		},
		Timestamp: readAt,
	})
	return nil
}

// GetMessageList 拉取会话历史消息，带 Redis 缓存
func (s *messageService) GetMessageList(userId string, conversationId string) ([]respond.MessageRespond, error) {
	if err := s.requireMember(conversationId, userId); err != nil {
		return nil, err
	}

	key := messageListCacheKey(conversationId)
	if cached, err := s.cacheService.GetOrError(context.Background(), key); err == nil {
		var list []respond.MessageRespond
		if err := json.Unmarshal([]byte(cached), &list); err == nil {
			return list, nil
		}
	} else if !myredis.IsNil(err) {
		zap.L().Error("读取消息列表缓存失败", zap.Error(err))
	}

	messages, err := s.messageRepo.FindByConversationUuid(conversationId)
	if err != nil {
		return nil, err
	}
	list := make([]respond.MessageRespond, 0, len(messages))
	for i := range messages {
		list = append(list, *toMessageRespond(&messages[i]))
	}

	s.cacheService.SubmitTask(func() {
		if data, err := json.Marshal(list); err == nil {
			if err := s.cacheService.Set(context.Background(), key,
				string(data), time.Minute*constants.REDIS_TIMEOUT); err != nil {
				zap.L().Error("写入消息列表缓存失败", zap.Error(err))
			}
		}
	})
	return list, nil
}

// GetMessageStatus 查询单条回执状态
func (s *messageService) GetMessageStatus(messageId int64, recipientId string) (*respond.MessageStatusRespond, error) {
	return s.tracker.GetStatus(messageId, recipientId)
}

// appendToMessageListCache 新消息追加进已有的列表缓存，缓存不存在时不回填
func (s *messageService) appendToMessageListCache(conversationId string, messageRsp respond.MessageRespond) {
	s.cacheService.SubmitTask(func() {
		key := messageListCacheKey(conversationId)
		cached, err := s.cacheService.GetOrError(context.Background(), key)
		if err != nil {
			return
		}
		var list []respond.MessageRespond
		if err := json.Unmarshal([]byte(cached), &list); err != nil {
			return
		}
		list = append(list, messageRsp)
		if data, err := json.Marshal(list); err == nil {
			_ = s.cacheService.Set(context.Background(), key, string(data), time.Minute*constants.REDIS_TIMEOUT)
		}
	})
}

// invalidateMessageListCache 消息变更后直接作废列表缓存
func (s *messageService) invalidateMessageListCache(conversationId string) {
	s.cacheService.SubmitTask(func() {
		if err := s.cacheService.Delete(context.Background(), messageListCacheKey(conversationId)); err != nil {
			zap.L().Error("删除消息列表缓存失败", zap.Error(err))
		}
	})
}

// HandleFrame 实现 chat.FrameHandler：处理一条 WebSocket 入站帧
// 帧处理失败只记日志，WebSocket 通道上不回传业务错误
func (s *messageService) HandleFrame(ctx context.Context, frame []byte) {
	var clientFrame request.ClientFrame
	if err := json.Unmarshal(frame, &clientFrame); err != nil {
		zap.L().Error("入站帧反序列化失败", zap.Error(err))
		return
	}

	switch clientFrame.Op {
	case request.OpSendMessage:
		_, err := s.SendMessage(clientFrame.SenderId, request.SendMessageRequest{
			ConversationId: clientFrame.ConversationId,
			Type:           clientFrame.Type,
			Content:        clientFrame.Content,
			Url:            clientFrame.Url,
			FileName:       clientFrame.FileName,
			FileSize:       clientFrame.FileSize,
		})
		if err != nil {
			zap.L().Error("发送消息失败", zap.String("senderId", clientFrame.SenderId), zap.Error(err))
		}
	case request.OpTyping:
		if err := s.Typing(clientFrame.SenderId, clientFrame.ConversationId); err != nil {
			zap.L().Error("扩散输入指示失败", zap.Error(err))
		}
	case request.OpMarkRead:
		if err := s.MarkRead(clientFrame.SenderId, clientFrame.MessageId); err != nil {
			zap.L().Error("标记已读失败", zap.Int64("messageId", clientFrame.MessageId), zap.Error(err))
		}
	case request.OpMarkConversationRead:
		if err := s.MarkConversationRead(clientFrame.SenderId, clientFrame.ConversationId); err != nil {
			zap.L().Error("标记会话已读失败", zap.String("conversationId", clientFrame.ConversationId), zap.Error(err))
		}
	default:
		zap.L().Warn("未知入站帧操作", zap.String("op", clientFrame.Op))
	}
}
