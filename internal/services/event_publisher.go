package services

import (
	"encoding/json"
	"log/slog"

	"chat-api/internal/models"

	"github.com/IBM/sarama"
)

// EventPublisher emits message-created events to Kafka for downstream
// consumers (notification fan-out, analytics). Publishing is best-effort and
// never blocks message creation on broker availability.
//
// A nil *EventPublisher is valid and publishes nothing, so deployments
// without Kafka simply pass nil.
type EventPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

func NewEventPublisher(producer sarama.SyncProducer, topic string, logger *slog.Logger) *EventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventPublisher{producer: producer, topic: topic, logger: logger}
}

type messageCreatedEvent struct {
	Type    string          `json:"type"`
	Message *models.Message `json:"message"`
}

func (p *EventPublisher) MessageCreated(message *models.Message) {
	if p == nil {
		return
	}

	payload, err := json.Marshal(messageCreatedEvent{Type: "message-created", Message: message})
	if err != nil {
		p.logger.Error("failed to marshal message event", "messageId", message.ID, "error", err)
		return
	}

	// Keyed by conversation so one thread's events stay ordered per partition.
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(message.ConversationID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		p.logger.Error("failed to publish message event", "messageId", message.ID, "error", err)
	}
}

func (p *EventPublisher) Close() error {
	if p == nil {
		return nil
	}
	return p.producer.Close()
}
