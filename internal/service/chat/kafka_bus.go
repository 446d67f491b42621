// kafka_bus.go
// 核心职责：分布式模式下的入站帧总线
// 1. 封装 Kafka 底层连接 (Writer/Reader)
// 2. 网关发布的帧写入 Kafka，消费循环从 Kafka 读出后交给处理器
// 3. 多实例部署时各实例消费全量帧，按本机在线连接各自推送
package chat

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	myconfig "lingyin_social_server/internal/config"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaBus 基于 Kafka 的入站帧总线
type KafkaBus struct {
	Producer *kafka.Writer
	Consumer *kafka.Reader

	handler FrameHandler
	closed  atomic.Bool
}

// NewKafkaBus 创建 KafkaBus 实例并初始化底层连接
func NewKafkaBus(cfg myconfig.KafkaConfig, handler FrameHandler) *KafkaBus {
	bus := &KafkaBus{handler: handler}
	bus.Producer = &kafka.Writer{
		Addr:                   kafka.TCP(cfg.HostPort),
		Topic:                  cfg.ChatTopic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           cfg.Timeout * time.Second,
		RequiredAcks:           kafka.RequireNone,
		AllowAutoTopicCreation: false,
	}
	bus.Consumer = kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{cfg.HostPort},
		Topic:          cfg.ChatTopic,
		CommitInterval: cfg.Timeout * time.Second,
		GroupID:        "chat_event",
		StartOffset:    kafka.LastOffset,
	})
	return bus
}

// Publish 实现 EventBus 接口：帧写入 Kafka
func (b *KafkaBus) Publish(ctx context.Context, frame []byte) error {
	return b.Producer.WriteMessages(ctx, kafka.Message{
		Value: frame,
	})
}

// Start 启动 Kafka 消费循环
func (b *KafkaBus) Start() {
	for {
		kafkaMessage, err := b.Consumer.ReadMessage(context.Background())
		if err != nil {
			if b.closed.Load() {
				return
			}
			zap.L().Error(err.Error())
			continue
		}
		zap.L().Debug(fmt.Sprintf("topic=%s, partition=%d, offset=%d",
			kafkaMessage.Topic, kafkaMessage.Partition, kafkaMessage.Offset))
		consumeFrame(b.handler, kafkaMessage.Value)
	}
}

// Close 关闭 Kafka 资源
func (b *KafkaBus) Close() {
	b.closed.Store(true)
	if err := b.Producer.Close(); err != nil {
		zap.L().Error(err.Error())
	}
	if err := b.Consumer.Close(); err != nil {
		zap.L().Error(err.Error())
	}
}
