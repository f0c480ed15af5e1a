package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeWorkflows Exchange = "textflow.workflows"
	ExchangeResults   Exchange = "textflow.results"
	ExchangeDLQ       Exchange = "textflow.dlq"
)

// Queues — имена очередей.
const (
	QueueWorkflowsPending Queue = "workflows.pending"
	QueueDLQWorkflows     Queue = "dlq.workflows"
)

// Routing keys.
const (
	RoutingKeyPending      RoutingKey = "pending"
	RoutingKeyDLQWorkflows RoutingKey = "workflows"
)

// SetupTopology объявляет exchanges, очереди и bindings.
// Идемпотентна: повторное объявление существующей топологии безопасно.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		return bindQueues(ch)
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeWorkflows, "direct"},
		// fanout: каждая реплика gateway привязывает собственную очередь
		// и видит все завершения
		{ExchangeResults, "fanout"},
		{ExchangeDLQ, "direct"},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	// Некорректные сообщения из workflows.pending уходят в DLQ
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQWorkflows),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		{QueueWorkflowsPending, dlqArgs},
		{QueueDLQWorkflows, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueWorkflowsPending, RoutingKeyPending, ExchangeWorkflows},
		{QueueDLQWorkflows, RoutingKeyDLQWorkflows, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// DeclareResultQueue объявляет эксклюзивную очередь результатов для одной
// реплики gateway и привязывает её к fanout-обменнику textflow.results.
// Очередь авто-удаляется при разрыве соединения. Возвращает имя очереди.
func DeclareResultQueue(ctx context.Context, conn *Connection) (string, error) {
	var name string

	err := conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		q, err := ch.QueueDeclare(
			"",    // имя генерирует брокер
			false, // durable
			true,  // delete when unused
			true,  // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("declare result queue: %w", err)
		}

		if err := ch.QueueBind(q.Name, "", string(ExchangeResults), false, nil); err != nil {
			return fmt.Errorf("bind result queue %s: %w", q.Name, err)
		}

		name = q.Name
		return nil
	})
	if err != nil {
		return "", err
	}

	return name, nil
}
