package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeWorkflowPending   MessageType = "workflow.pending"
	MessageTypeWorkflowCompleted MessageType = "workflow.completed"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// WorkflowPendingPayload — payload для сообщения о новом instance.
// Deadline дублируется в сообщении, чтобы воркер мог отбросить
// заведомо просроченное задание без похода в БД.
type WorkflowPendingPayload struct {
	WorkflowID string    `json:"workflow_id"`
	Kind       string    `json:"kind"`
	Deadline   time.Time `json:"deadline"`
}

// WorkflowCompletedPayload — payload для события завершения instance.
// Потребитель: gateway (fanout, каждая реплика).
type WorkflowCompletedPayload struct {
	WorkflowID string `json:"workflow_id"`
	Status     string `json:"status"` // COMPLETED, FAILED или TIMED_OUT
	Result     string `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
	Attempts   int    `json:"attempts"`
	ElapsedMs  int64  `json:"elapsed_ms"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishWorkflowPending публикует событие о новом instance, ожидающем воркера.
// Потребитель: Worker.
func (p *Publisher) PublishWorkflowPending(ctx context.Context, payload WorkflowPendingPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeWorkflowPending,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeWorkflows, RoutingKeyPending, msg)
}

// PublishWorkflowCompleted публикует событие о завершённом instance.
// Потребитель: каждая реплика gateway (fanout).
func (p *Publisher) PublishWorkflowCompleted(ctx context.Context, payload WorkflowCompletedPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeWorkflowCompleted,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeResults, "", msg)
}
