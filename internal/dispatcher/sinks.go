package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonredis "p2000-receiver/common/redis"
	"p2000-receiver/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/go-resty/resty/v2"
)

// Sink delivers a payload for one sensor.
type Sink interface {
	Name() string
	Send(ctx context.Context, sensor string, payload models.Payload) error
}

// HomeAssistantSink updates a sensor entity through the Home Assistant REST API.
type HomeAssistantSink struct {
	httpClient *resty.Client
}

// NewHomeAssistantSink creates a sink for baseURL authenticated with a
// long-lived access token.
func NewHomeAssistantSink(baseURL, token string, timeout time.Duration) *HomeAssistantSink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json")

	return &HomeAssistantSink{httpClient: client}
}

// Name implements Sink.
func (s *HomeAssistantSink) Name() string { return "homeassistant" }

// Send posts the payload to /api/states/sensor.<sensor>.
func (s *HomeAssistantSink) Send(ctx context.Context, sensor string, payload models.Payload) error {
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/api/states/sensor." + sensor)
	if err != nil {
		return fmt.Errorf("failed to post state: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("home assistant returned %s", resp.Status())
	}
	return nil
}

// Publisher is the MQTT publish call; *mqtt.Client from common/mqtt satisfies it.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

type connectionState interface {
	IsConnected() bool
}

// MQTTSink publishes the payload on <topic>/sensor/<sensor>.
type MQTTSink struct {
	publisher Publisher
	topic     string
	qos       byte
	retained  bool
}

// NewMQTTSink creates an MQTTSink.
func NewMQTTSink(publisher Publisher, baseTopic string, qos byte, retained bool) *MQTTSink {
	return &MQTTSink{publisher: publisher, topic: baseTopic, qos: qos, retained: retained}
}

// Name implements Sink.
func (s *MQTTSink) Name() string { return "mqtt" }

// Topic returns the topic used for sensor.
func (s *MQTTSink) Topic(sensor string) string {
	return s.topic + "/sensor/" + sensor
}

// Send implements Sink.
func (s *MQTTSink) Send(_ context.Context, sensor string, payload models.Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	if err := s.publisher.Publish(s.Topic(sensor), s.qos, s.retained, data); err != nil {
		if c, ok := s.publisher.(connectionState); ok && !c.IsConnected() {
			return fmt.Errorf("broker disconnected: %w", err)
		}
		return err
	}
	return nil
}

// RedisStreamSink appends every payload to a Redis stream.
type RedisStreamSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStreamSink creates a RedisStreamSink. maxLen > 0 caps the stream.
func NewRedisStreamSink(client *redis.Client, stream string, maxLen int64) *RedisStreamSink {
	return &RedisStreamSink{client: client, stream: stream, maxLen: maxLen}
}

// Name implements Sink.
func (s *RedisStreamSink) Name() string { return "redis" }

// Send implements Sink.
func (s *RedisStreamSink) Send(ctx context.Context, sensor string, payload models.Payload) error {
	_, err := commonredis.PublishJSONToStream(ctx, s.client, s.stream, s.maxLen, map[string]string{
		"sensor":     sensor,
		"message_id": payload.Attributes.MessageID,
	}, payload)
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", s.stream, err)
	}
	return nil
}

// SubjectPublisher is the NATS publish call; *nats.Conn satisfies it.
type SubjectPublisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes the payload on <subject>.<sensor>.
type NATSSink struct {
	conn    SubjectPublisher
	subject string
}

// NewNATSSink creates a NATSSink.
func NewNATSSink(conn SubjectPublisher, baseSubject string) *NATSSink {
	return &NATSSink{conn: conn, subject: baseSubject}
}

// Name implements Sink.
func (s *NATSSink) Name() string { return "nats" }

// Send implements Sink.
func (s *NATSSink) Send(_ context.Context, sensor string, payload models.Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	if err := s.conn.Publish(s.subject+"."+sensor, data); err != nil {
		return fmt.Errorf("failed to publish to nats: %w", err)
	}
	return nil
}
