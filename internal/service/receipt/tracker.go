// Package receipt 实现消息回执追踪
// 逐接收者记录消息的送达/已读状态，回答"这条消息谁读了"和"这个会话还有几条未读"。
// 幂等性由存储层保证：唯一索引挡住重复初始化，条件更新挡住重复标记，
// 并发标记同一回执时由数据库行锁串行化，首个已读时间不会被覆盖
package receipt

import (
	"context"
	"strconv"
	"time"

	"lingyin_social_server/internal/dao/mysql"
	myredis "lingyin_social_server/internal/dao/redis"
	"lingyin_social_server/internal/dto/respond"
	"lingyin_social_server/internal/model"
	"lingyin_social_server/pkg/constants"
	"lingyin_social_server/pkg/errorx"

	"go.uber.org/zap"
)

// Tracker 回执追踪接口
type Tracker interface {
	// InitializeForMessage 为消息的每个接收者创建初始回执，重复调用幂等
	InitializeForMessage(messageId int64, recipientIds []string) error
	// MarkDelivered 标记消息对某接收者已送达，已送达时为空操作
	MarkDelivered(messageId int64, recipientId string) error
	// MarkRead 标记消息对某接收者已读，未送达时一并补送达；重复标记为空操作
	MarkRead(messageId int64, recipientId string) error
	// MarkAllRead 将会话内该用户的全部待处理消息标记已读，并推进其最近已读时间
	// 返回本次生效的已读时间
	MarkAllRead(conversationId, userId string) (time.Time, error)
	// CountRead 统计消息的已读人数
	CountRead(messageId int64) (int64, error)
	// GetStatus 查询消息对某接收者的回执状态
	GetStatus(messageId int64, recipientId string) (*respond.MessageStatusRespond, error)
	// UnreadCount 计算会话对该用户的未读数：
	// created_at 严格晚于其最近已读时间的他人消息数，从未读过时以会话创建时间起算
	UnreadCount(conversationId, userId string) (int64, error)
	// InvalidateUnread 异步失效会话的未读数缓存，新消息入库后调用
	InvalidateUnread(conversationId string)
}

// tracker Tracker 接口实现
type tracker struct {
	receiptRepo      mysql.MessageReceiptRepository
	messageRepo      mysql.MessageRepository
	memberRepo       mysql.ConversationMemberRepository
	conversationRepo mysql.ConversationRepository
	cacheService     myredis.AsyncCacheService
}

// NewTracker 创建回执追踪实例
func NewTracker(
	receiptRepo mysql.MessageReceiptRepository,
	messageRepo mysql.MessageRepository,
	memberRepo mysql.ConversationMemberRepository,
	conversationRepo mysql.ConversationRepository,
	cacheService myredis.AsyncCacheService,
) Tracker {
	return &tracker{
		receiptRepo:      receiptRepo,
		messageRepo:      messageRepo,
		memberRepo:       memberRepo,
		conversationRepo: conversationRepo,
		cacheService:     cacheService,
	}
}

// unreadCacheKey 未读数缓存键
func unreadCacheKey(conversationId, userId string) string {
	return "unread_count_" + conversationId + "_" + userId
}

// InitializeForMessage 为消息的每个接收者创建初始回执
// 发送者不在 recipientIds 中（调用方负责剔除），单聊会话只产生一条回执
func (t *tracker) InitializeForMessage(messageId int64, recipientIds []string) error {
	if len(recipientIds) == 0 {
		return nil
	}
	receipts := make([]model.MessageReceipt, 0, len(recipientIds))
	for _, recipientId := range recipientIds {
		receipts = append(receipts, model.MessageReceipt{
			MessageId:   messageId,
			RecipientId: recipientId,
		})
	}
	return t.receiptRepo.BatchInsertIgnore(receipts)
}

// MarkDelivered 标记已送达
func (t *tracker) MarkDelivered(messageId int64, recipientId string) error {
	return t.receiptRepo.MarkDelivered(messageId, recipientId, time.Now())
}

// MarkRead 标记已读
func (t *tracker) MarkRead(messageId int64, recipientId string) error {
	return t.receiptRepo.MarkRead(messageId, recipientId, time.Now())
}

// MarkAllRead 会话级批量已读
// 每次现查待处理消息列表，不依赖快照；逐条失败只记日志继续处理其余消息
func (t *tracker) MarkAllRead(conversationId, userId string) (time.Time, error) {
	now := time.Now()

	messageIds, err := t.receiptRepo.FindPendingMessageIds(conversationId, userId)
	if err != nil {
		return now, err
	}
	for _, messageId := range messageIds {
		if err := t.receiptRepo.MarkRead(messageId, userId, now); err != nil {
			zap.L().Error("批量已读单条失败",
				zap.Int64("messageId", messageId),
				zap.String("userId", userId),
				zap.Error(err))
		}
	}

	if err := t.memberRepo.UpdateLastSeenAt(conversationId, userId, now); err != nil {
		return now, err
	}

	// 最近已读时间变了，未读数缓存作废
	t.cacheService.SubmitTask(func() {
		if err := t.cacheService.Delete(context.Background(), unreadCacheKey(conversationId, userId)); err != nil {
			zap.L().Error("删除未读数缓存失败", zap.Error(err))
		}
	})
	return now, nil
}

// CountRead 统计已读人数
func (t *tracker) CountRead(messageId int64) (int64, error) {
	return t.receiptRepo.CountRead(messageId)
}

// GetStatus 查询单条回执状态
func (t *tracker) GetStatus(messageId int64, recipientId string) (*respond.MessageStatusRespond, error) {
	receipt, err := t.receiptRepo.Find(messageId, recipientId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeNotFound, "回执不存在")
		}
		return nil, err
	}

	rsp := &respond.MessageStatusRespond{
		MessageId:   receipt.MessageId,
		RecipientId: receipt.RecipientId,
		Delivered:   receipt.Delivered,
		Read:        receipt.ReadAt.Valid,
	}
	if receipt.DeliveredAt.Valid {
		rsp.DeliveredAt = receipt.DeliveredAt.Time.Format("2006-01-02 15:04:05")
	}
	if receipt.ReadAt.Valid {
		rsp.ReadAt = receipt.ReadAt.Time.Format("2006-01-02 15:04:05")
	}
	return rsp, nil
}

// UnreadCount 计算未读数
// created_at 恰好等于最近已读时间的消息视为已读，自己发送的消息不计入
func (t *tracker) UnreadCount(conversationId, userId string) (int64, error) {
	key := unreadCacheKey(conversationId, userId)
	if cached, err := t.cacheService.GetOrError(context.Background(), key); err == nil {
		if count, err := strconv.ParseInt(cached, 10, 64); err == nil {
			return count, nil
		}
	} else if !myredis.IsNil(err) {
		zap.L().Error("读取未读数缓存失败", zap.Error(err))
	}

	member, err := t.memberRepo.FindMember(conversationId, userId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return 0, errorx.ErrForbidden
		}
		return 0, err
	}

	threshold := member.LastSeenAt.Time
	if !member.LastSeenAt.Valid {
		// 从未读过整个会话，以会话创建时间为阈值
		conversation, err := t.conversationRepo.FindByUuid(conversationId)
		if err != nil {
			return 0, err
		}
		threshold = conversation.CreatedAt
	}

	count, err := t.messageRepo.CountSentAfter(conversationId, userId, threshold)
	if err != nil {
		return 0, err
	}

	t.cacheService.SubmitTask(func() {
		if err := t.cacheService.Set(context.Background(), key,
			strconv.FormatInt(count, 10), time.Minute*constants.REDIS_TIMEOUT); err != nil {
			zap.L().Error("写入未读数缓存失败", zap.Error(err))
		}
	})
	return count, nil
}

// InvalidateUnread 新消息入库后按前缀清掉会话的全部未读数缓存
func (t *tracker) InvalidateUnread(conversationId string) {
	t.cacheService.SubmitTask(func() {
		if err := t.cacheService.DeleteByPattern(context.Background(), "unread_count_"+conversationId+"_*"); err != nil {
			zap.L().Error("清除未读数缓存失败", zap.String("conversationId", conversationId), zap.Error(err))
		}
	})
}
