// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений
//   - consumer.go   — потребление сообщений
//
// Типы сообщений:
//   - workflow.pending   — новый instance ожидает воркера
//   - workflow.completed — instance достиг терминального статуса
//
// Exchanges:
//   - textflow.workflows — задания для воркеров (direct)
//   - textflow.results   — события завершения для gateway (fanout:
//     каждая реплика gateway получает все завершения)
//   - textflow.dlq       — dead letter queue
//
// Очередь workflows.pending гарантирует эксклюзивную доставку:
// каждое сообщение получает ровно один consumer за раз (prefetch 1,
// ручной ack), nack с requeue возвращает задание в очередь.
package mq
