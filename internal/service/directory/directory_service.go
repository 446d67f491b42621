// Package directory 实现参与者目录
// 回答"某会话当前有哪些成员"和"某用户与哪些人共享会话"，
// 是扇出引擎解析受众的唯一数据来源。
// 成员列表读多写少，走 Redis 短期缓存，成员变更时由会话服务负责失效
package directory

import (
	"context"
	"encoding/json"
	"time"

	"lingyin_social_server/internal/dao/mysql"
	myredis "lingyin_social_server/internal/dao/redis"
	"lingyin_social_server/pkg/constants"

	"go.uber.org/zap"
)

// Service 参与者目录接口
type Service interface {
	// GetActiveParticipants 获取会话的当前成员 UUID 列表
	GetActiveParticipants(conversationId string) ([]string, error)
	// GetConversationsFor 获取用户参与的所有会话 UUID
	GetConversationsFor(userId string) ([]string, error)
	// GetContactsOf 获取与该用户共享至少一个会话的用户 UUID 全集（去重，不含本人）
	GetContactsOf(userId string) ([]string, error)
	// InvalidateConversation 成员变更后失效会话的成员缓存
	InvalidateConversation(conversationId string)
}

// directoryService Service 接口实现
type directoryService struct {
	memberRepo   mysql.ConversationMemberRepository
	cacheService myredis.AsyncCacheService
}

// NewService 创建参与者目录实例
func NewService(memberRepo mysql.ConversationMemberRepository, cacheService myredis.AsyncCacheService) Service {
	return &directoryService{
		memberRepo:   memberRepo,
		cacheService: cacheService,
	}
}

// membersCacheKey 会话成员缓存键
func membersCacheKey(conversationId string) string {
	return "conv_members_" + conversationId
}

// GetActiveParticipants 获取会话成员列表
// 缓存未命中回源 MySQL，异步写回；缓存读写失败降级为直查数据库
func (s *directoryService) GetActiveParticipants(conversationId string) ([]string, error) {
	key := membersCacheKey(conversationId)
	if cached, err := s.cacheService.GetOrError(context.Background(), key); err == nil {
		var userIds []string
		if err := json.Unmarshal([]byte(cached), &userIds); err == nil {
			return userIds, nil
		}
	} else if !myredis.IsNil(err) {
		zap.L().Error("读取会话成员缓存失败", zap.Error(err))
	}

	userIds, err := s.memberRepo.FindUserIdsByConversationUuid(conversationId)
	if err != nil {
		return nil, err
	}

	s.cacheService.SubmitTask(func() {
		if data, err := json.Marshal(userIds); err == nil {
			if err := s.cacheService.Set(context.Background(), key,
				string(data), time.Minute*constants.REDIS_TIMEOUT); err != nil {
				zap.L().Error("写入会话成员缓存失败", zap.Error(err))
			}
		}
	})
	return userIds, nil
}

// GetConversationsFor 获取用户参与的所有会话
func (s *directoryService) GetConversationsFor(userId string) ([]string, error) {
	return s.memberRepo.FindConversationUuidsByUserId(userId)
}

// GetContactsOf 获取用户的联系人全集
// 逐个会话取成员做并集，user_status_changed 事件按此扩散
func (s *directoryService) GetContactsOf(userId string) ([]string, error) {
	conversationIds, err := s.GetConversationsFor(userId)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	contacts := make([]string, 0)
	for _, conversationId := range conversationIds {
		userIds, err := s.GetActiveParticipants(conversationId)
		if err != nil {
			// 单个会话查询失败跳过，联系人集合宁缺毋假
			zap.L().Warn("查询会话成员失败", zap.String("conversationId", conversationId), zap.Error(err))
			continue
		}
		for _, id := range userIds {
			if id == userId {
				continue
			}
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				contacts = append(contacts, id)
			}
		}
	}
	return contacts, nil
}

// InvalidateConversation 失效会话成员缓存
// 同步执行：成员变更后紧接着的受众解析不能命中过期的成员列表
func (s *directoryService) InvalidateConversation(conversationId string) {
	if err := s.cacheService.Delete(context.Background(), membersCacheKey(conversationId)); err != nil {
		zap.L().Error("删除会话成员缓存失败", zap.String("conversationId", conversationId), zap.Error(err))
	}
}
