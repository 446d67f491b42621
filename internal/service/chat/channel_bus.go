// channel_bus.go
// 核心职责：单机模式下的入站帧总线
// 不依赖外部消息队列，帧经进程内缓冲通道直达处理器，适合小规模或开发环境
package chat

import (
	"context"

	"lingyin_social_server/pkg/constants"
)

// ChannelBus 基于进程内通道的入站帧总线
type ChannelBus struct {
	// Transmit 帧转发通道
	Transmit chan []byte

	handler FrameHandler
}

// NewChannelBus 创建 ChannelBus 实例
func NewChannelBus(handler FrameHandler) *ChannelBus {
	return &ChannelBus{
		Transmit: make(chan []byte, constants.CHANNEL_SIZE),
		handler:  handler,
	}
}

// Publish 实现 EventBus 接口：帧写入通道
func (b *ChannelBus) Publish(ctx context.Context, frame []byte) error {
	select {
	case b.Transmit <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start 启动消费循环，通道关闭后退出
func (b *ChannelBus) Start() {
	for frame := range b.Transmit {
		consumeFrame(b.handler, frame)
	}
}

// Close 关闭转发通道
func (b *ChannelBus) Close() {
	close(b.Transmit)
}
