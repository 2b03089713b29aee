/*
 * @module service/event/publisher
 * @description 质量运行事件发布，运行结束后将结果摘要推送到消息系统，供下游订阅
 * @architecture 事件驱动架构 - 消息发布
 * @documentReference DESIGN.md
 * @stateFlow 运行记录 -> 事件 -> 序列化 -> Kafka/MQTT
 * @rules 事件发布失败只记录日志，不影响运行结果
 * @dependencies github.com/segmentio/kafka-go, github.com/eclipse/paho.mqtt.golang
 * @refs kafka_publisher.go, mqtt_publisher.go, service/quality_service.go
 */

package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sales-quality-service/service/config"
	"sales-quality-service/service/models"
)

// 事件类型
const (
	TypeRunCompleted = "quality.run.completed"
	TypeRunFailed    = "quality.run.failed"
)

// RunEvent 质量运行事件
type RunEvent struct {
	Type         string    `json:"type"`
	RunID        string    `json:"run_id"`
	Source       string    `json:"source"`
	Trigger      string    `json:"trigger"`
	Status       string    `json:"status"`
	RawCount     int       `json:"raw_count"`
	CleanedCount int       `json:"cleaned_count"`
	RawScore     float64   `json:"raw_score"`
	RawGrade     string    `json:"raw_grade,omitempty"`
	CleanedScore float64   `json:"cleaned_score"`
	CleanedGrade string    `json:"cleaned_grade,omitempty"`
	AnomalyTotal int       `json:"anomaly_total"`
	Error        string    `json:"error,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// NewRunEvent 根据运行记录生成事件
func NewRunEvent(run *models.QualityRun) RunEvent {
	eventType := TypeRunCompleted
	if run.Status == models.RunStatusFailed {
		eventType = TypeRunFailed
	}
	return RunEvent{
		Type:         eventType,
		RunID:        run.ID,
		Source:       run.Source,
		Trigger:      run.Trigger,
		Status:       run.Status,
		RawCount:     run.RawCount,
		CleanedCount: run.CleanedCount,
		RawScore:     run.RawScore,
		RawGrade:     run.RawGrade,
		CleanedScore: run.CleanedScore,
		CleanedGrade: run.CleanedGrade,
		AnomalyTotal: run.AnomalyTotal,
		Error:        run.ErrorMessage,
		OccurredAt:   run.FinishedAt,
	}
}

func (e RunEvent) encode() ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("序列化事件失败: %w", err)
	}
	return payload, nil
}

// Publisher 事件发布器
type Publisher interface {
	Publish(ctx context.Context, event RunEvent) error
	Close() error
}

// NoopPublisher 未配置消息系统时使用
type NoopPublisher struct{}

// Publish 实现 Publisher
func (NoopPublisher) Publish(context.Context, RunEvent) error { return nil }

// Close 实现 Publisher
func (NoopPublisher) Close() error { return nil }

// NewPublisher 按配置创建事件发布器
func NewPublisher(cfg config.EventConfig) (Publisher, error) {
	switch cfg.Type {
	case config.EventTypeNone, "":
		return NoopPublisher{}, nil
	case config.EventTypeKafka:
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.Topic)
	case config.EventTypeMQTT:
		return NewMQTTPublisher(cfg)
	default:
		return nil, fmt.Errorf("不支持的事件类型: %s", cfg.Type)
	}
}
