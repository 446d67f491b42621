// bus.go
// 核心职责：入站帧总线的接口定义与工厂
// 网关读协程把前端帧投入总线，总线消费循环交给 FrameHandler 处理业务，
// 支持 Channel (单机) 和 Kafka (分布式) 两种实现
package chat

import (
	"context"
	"fmt"

	myconfig "lingyin_social_server/internal/config"

	"go.uber.org/zap"
)

// FrameHandler 入站帧处理接口，由 chatmsg 服务实现
type FrameHandler interface {
	// HandleFrame 处理一条入站帧（持久化、回执初始化、事件扇出）
	HandleFrame(ctx context.Context, frame []byte)
}

// EventBus 入站帧总线接口
type EventBus interface {
	// Publish 发布一条入站帧
	Publish(ctx context.Context, frame []byte) error
	// Start 启动消费循环（阻塞，调用方用 goroutine 运行）
	Start()
	// Close 关闭总线资源
	Close()
}

// consumeFrame 消费单条入站帧
// 处理器 panic 只丢弃当前帧，消费循环继续运行
func consumeFrame(handler FrameHandler, frame []byte) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error(fmt.Sprintf("帧处理 panic: %v", r))
		}
	}()
	handler.HandleFrame(context.Background(), frame)
}

// NewEventBus 根据配置创建总线实例
// eventMode 为 "kafka" 走 Kafka 中转，否则使用进程内通道
func NewEventBus(handler FrameHandler) EventBus {
	cfg := myconfig.GetConfig().KafkaConfig
	if cfg.EventMode == "kafka" {
		return NewKafkaBus(cfg, handler)
	}
	return NewChannelBus(handler)
}
