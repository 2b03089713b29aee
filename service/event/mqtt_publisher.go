package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sales-quality-service/service/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	mqttQoS            = 1
	mqttConnectTimeout = 10 * time.Second
)

// MQTTPublisher 通过 MQTT 发布事件
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
}

// NewMQTTPublisher 连接 broker 并创建 MQTT 事件发布器
func NewMQTTPublisher(cfg config.EventConfig) (*MQTTPublisher, error) {
	if cfg.MQTTBroker == "" {
		return nil, fmt.Errorf("未配置MQTT broker")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBroker)
	opts.SetClientID(cfg.MQTTClientID)
	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
		opts.SetPassword(cfg.MQTTPassword)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		slog.Warn("MQTT连接断开", "broker", cfg.MQTTBroker, "error", err)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("MQTT连接超时: %s", cfg.MQTTBroker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("MQTT连接失败: %w", err)
	}

	slog.Info("MQTT事件发布器已连接", "broker", cfg.MQTTBroker, "topic", cfg.Topic)
	return newMQTTPublisherWithClient(client, cfg.Topic), nil
}

func newMQTTPublisherWithClient(client mqtt.Client, topic string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic}
}

// Publish 实现 Publisher
func (p *MQTTPublisher) Publish(ctx context.Context, event RunEvent) error {
	payload, err := event.encode()
	if err != nil {
		return err
	}

	token := p.client.Publish(p.topic, mqttQoS, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("发布MQTT消息超时: %w", ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("发布MQTT消息失败: %w", err)
	}

	slog.Debug("事件已发布到MQTT", "topic", p.topic, "run_id", event.RunID)
	return nil
}

// Close 实现 Publisher
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
