package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher 通过 Kafka 发布事件，以运行ID作为消息键
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher 创建 Kafka 事件发布器
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("未配置Kafka broker")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	slog.Info("Kafka事件发布器已创建", "brokers", brokers, "topic", topic)
	return &KafkaPublisher{writer: writer, topic: topic}, nil
}

// Publish 实现 Publisher
func (p *KafkaPublisher) Publish(ctx context.Context, event RunEvent) error {
	payload, err := event.encode()
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.RunID),
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("发送Kafka消息失败: %w", err)
	}

	slog.Debug("事件已发送到Kafka", "topic", p.topic, "run_id", event.RunID)
	return nil
}

// Close 实现 Publisher
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
