// Package worker реализует пул воркеров — потребителей очереди заданий.
//
// Каждый воркер-consumer берёт из очереди workflows.pending не более
// одного задания за раз (prefetch 1, ручной ack), клеймит instance в БД
// условным UPDATE и прогоняет его через координатор. Упавший воркер не
// теряет задание: nack возвращает его в очередь, а застрявшие в RUNNING
// instances периодически возвращаются в PENDING polling-циклом.
//
// Виды activity:
//   - reverse — чистое вычисление (переворот строки)
//   - text    — внешний вызов LLM-сервиса
package worker
