package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"sales-quality-service/service/config"
	"sales-quality-service/service/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRun(status string) *models.QualityRun {
	return &models.QualityRun{
		ID:           "run-1",
		Source:       "table:sales_orders",
		Trigger:      models.TriggerSchedule,
		Status:       status,
		RawCount:     100,
		CleanedCount: 100,
		RawScore:     81.2,
		RawGrade:     "good",
		CleanedScore: 99.5,
		CleanedGrade: "excellent",
		AnomalyTotal: 12,
		FinishedAt:   time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC),
	}
}

func TestNewRunEvent(t *testing.T) {
	e := NewRunEvent(testRun(models.RunStatusCompleted))
	assert.Equal(t, TypeRunCompleted, e.Type)
	assert.Equal(t, "run-1", e.RunID)
	assert.Equal(t, 12, e.AnomalyTotal)

	failed := testRun(models.RunStatusFailed)
	failed.ErrorMessage = "读取记录源失败"
	e = NewRunEvent(failed)
	assert.Equal(t, TypeRunFailed, e.Type)
	assert.Equal(t, "读取记录源失败", e.Error)
}

func TestNewPublisher(t *testing.T) {
	p, err := NewPublisher(config.EventConfig{Type: config.EventTypeNone})
	require.NoError(t, err)
	assert.IsType(t, NoopPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), RunEvent{}))

	_, err = NewPublisher(config.EventConfig{Type: "amqp"})
	assert.Error(t, err)

	_, err = NewPublisher(config.EventConfig{Type: config.EventTypeKafka})
	assert.Error(t, err)

	_, err = NewPublisher(config.EventConfig{Type: config.EventTypeMQTT})
	assert.Error(t, err)
}

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "runs"}

	require.NoError(t, p.Publish(context.Background(), NewRunEvent(testRun(models.RunStatusCompleted))))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "run-1", string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, TypeRunCompleted, string(msg.Headers[0].Value))

	var decoded RunEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, 99.5, decoded.CleanedScore)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{writer: &fakeWriter{err: boom}, topic: "runs"}

	err := p.Publish(context.Background(), RunEvent{RunID: "x"})
	assert.ErrorIs(t, err, boom)
}

type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error, completed bool) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	if completed {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type fakeMQTTClient struct {
	mqtt.Client
	topic        string
	payload      []byte
	token        *fakeToken
	disconnected bool
}

func (c *fakeMQTTClient) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	c.topic = topic
	c.payload = payload.([]byte)
	return c.token
}

func (c *fakeMQTTClient) Disconnect(uint) {
	c.disconnected = true
}

func TestMQTTPublisher_Publish(t *testing.T) {
	client := &fakeMQTTClient{token: newFakeToken(nil, true)}
	p := newMQTTPublisherWithClient(client, "quality/runs")

	require.NoError(t, p.Publish(context.Background(), NewRunEvent(testRun(models.RunStatusCompleted))))
	assert.Equal(t, "quality/runs", client.topic)

	var decoded RunEvent
	require.NoError(t, json.Unmarshal(client.payload, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)

	require.NoError(t, p.Close())
	assert.True(t, client.disconnected)
}

func TestMQTTPublisher_Errors(t *testing.T) {
	boom := errors.New("not authorized")
	p := newMQTTPublisherWithClient(&fakeMQTTClient{token: newFakeToken(boom, true)}, "quality/runs")
	assert.ErrorIs(t, p.Publish(context.Background(), RunEvent{}), boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p = newMQTTPublisherWithClient(&fakeMQTTClient{token: newFakeToken(nil, false)}, "quality/runs")
	assert.ErrorIs(t, p.Publish(ctx, RunEvent{}), context.Canceled)
}
