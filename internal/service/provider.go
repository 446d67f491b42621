// Package service 提供业务逻辑层
// 本文件实现 Service 层的依赖注入和聚合
package service

import (
	"lingyin_social_server/internal/dao/mysql"
	myredis "lingyin_social_server/internal/dao/redis"
	"lingyin_social_server/internal/service/chat"
	"lingyin_social_server/internal/service/chatmsg"
	"lingyin_social_server/internal/service/conversation"
	"lingyin_social_server/internal/service/directory"
	"lingyin_social_server/internal/service/presence"
	"lingyin_social_server/internal/service/receipt"
	"lingyin_social_server/internal/service/user"
)

// Services 聚合所有 Service 实例
// 作为依赖注入的入口，Handler 层通过该聚合访问各个 Service
type Services struct {
	User         user.Service         // 用户 Service
	Conversation conversation.Service // 会话 Service
	Message      chatmsg.Service      // 消息 Service
	Receipt      receipt.Tracker      // 回执追踪
	Directory    directory.Service    // 参与者目录

	Registry *presence.Registry // 在线状态注册表
	Engine   *chat.FanOutEngine // 事件扇出引擎
	Gateway  *chat.Gateway      // WebSocket 网关
	Bus      chat.EventBus      // 入站帧总线
}

// NewServices 创建并注入所有 Service 实例
// 依赖注入顺序：
//  1. 在线注册表与基础 Service（目录、回执）
//  2. 扇出引擎（受众解析依赖目录，在线判定依赖注册表）
//  3. 消息 Service（事件生产方，同时作为帧总线的处理器）
//  4. 总线与网关，最后把网关作为 Pusher 注回扇出引擎
func NewServices(repos *mysql.Repositories, cacheService myredis.AsyncCacheService) *Services {
	registry := presence.NewRegistry()
	directorySvc := directory.NewService(repos.Member, cacheService)
	tracker := receipt.NewTracker(repos.Receipt, repos.Message, repos.Member, repos.Conversation, cacheService)

	engine := chat.NewFanOutEngine(directorySvc, registry)

	messageSvc := chatmsg.NewService(
		repos.Message, repos.Member, repos.Conversation, repos.User,
		tracker, directorySvc, engine, cacheService,
	)
	conversationSvc := conversation.NewService(repos.Conversation, repos.Member, tracker, directorySvc, engine)
	userSvc := user.NewService(repos.User, cacheService, registry)

	bus := chat.NewEventBus(messageSvc)
	gateway := chat.NewGateway(registry, engine, tracker, bus, repos.User)
	engine.SetPusher(gateway)

	return &Services{
		User:         userSvc,
		Conversation: conversationSvc,
		Message:      messageSvc,
		Receipt:      tracker,
		Directory:    directorySvc,
		Registry:     registry,
		Engine:       engine,
		Gateway:      gateway,
		Bus:          bus,
	}
}
