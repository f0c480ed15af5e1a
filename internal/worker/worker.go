package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/okrasov/textflow/internal/domain"
	"github.com/okrasov/textflow/internal/mq"
	"github.com/okrasov/textflow/internal/repo"
	"github.com/okrasov/textflow/internal/retry"
	"github.com/okrasov/textflow/internal/workflow"
)

// Default configuration values.
const (
	defaultConcurrency  = 4
	defaultPollInterval = 10 * time.Second
	defaultBatchSize    = 50
	defaultStaleAfter   = 5 * time.Minute
)

// Worker — пул потребителей очереди workflows.pending.
//
// Worker — stateless компонент системы, который:
//   - Держит Concurrency параллельных consumer'ов (prefetch 1 каждый)
//   - Периодически проверяет pending instances в БД (polling fallback)
//   - Возвращает застрявшие RUNNING instances в очередь
//   - Прогоняет каждый instance через координатор с retry-политикой
//   - Публикует событие workflow.completed для gateway
//
// Workers масштабируются горизонтально — несколько экземпляров
// потребляют из одной очереди.
type Worker struct {
	repo      *repo.InstanceRepo
	publisher *mq.Publisher
	conn      *mq.Connection

	registry     *Registry
	coordinators map[domain.ActivityKind]*workflow.Coordinator

	concurrency  int
	pollInterval time.Duration
	batchSize    int
	staleAfter   time.Duration

	consumers []*mq.Consumer

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	// Repo — хранилище instances.
	Repo *repo.InstanceRepo

	// MQ
	Publisher *mq.Publisher
	Conn      *mq.Connection

	// Registry — executor'ы по видам activity.
	Registry *Registry

	// Coordinators — координаторы по видам activity.
	// Если nil — создаются с retry.DefaultPolicy().
	Coordinators map[domain.ActivityKind]*workflow.Coordinator

	// Concurrency — количество параллельных consumer'ов (default: 4).
	Concurrency int

	// Polling configuration
	PollInterval time.Duration // интервал polling (default: 10s)
	BatchSize    int           // количество instances за один poll (default: 50)

	// StaleAfter — порог возврата застрявших RUNNING instances (default: 5m).
	StaleAfter time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	staleAfter := cfg.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	coordinators := cfg.Coordinators
	if coordinators == nil {
		coordinators = map[domain.ActivityKind]*workflow.Coordinator{
			domain.KindReverse: workflow.New(workflow.Config{Policy: retry.DefaultPolicy(), Logger: logger}),
			domain.KindText:    workflow.New(workflow.Config{Policy: retry.DefaultPolicy(), Logger: logger}),
		}
	}

	return &Worker{
		repo:         cfg.Repo,
		publisher:    cfg.Publisher,
		conn:         cfg.Conn,
		registry:     cfg.Registry,
		coordinators: coordinators,
		concurrency:  concurrency,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		staleAfter:   staleAfter,
		logger:       logger,
	}
}

// Start запускает Worker.
//
// Запускает:
//   - Concurrency consumer'ов для workflows.pending
//   - Polling горутину для fallback
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker",
		"concurrency", w.concurrency,
		"poll_interval", w.pollInterval,
		"batch_size", w.batchSize,
	)

	if w.conn != nil {
		for i := 0; i < w.concurrency; i++ {
			consumer := mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
				Queue:    string(mq.QueueWorkflowsPending),
				Handler:  w.handleWorkflowPending,
				Prefetch: 1,
			})
			w.consumers = append(w.consumers, consumer)

			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					w.logger.Error("workflow consumer error", "error", err)
				}
			}()
		}
	}

	// Запускаем polling
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pollLoop(ctx)
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}

	for _, consumer := range w.consumers {
		consumer.Stop()
	}

	// Ждём завершения горутин
	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}

// pollLoop — цикл polling для fallback.
func (w *Worker) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Первый poll сразу при старте (подхватываем instances,
	// созданные пока воркеры были выключены)
	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll выполняет один цикл polling: возвращает застрявшие instances
// и обрабатывает pending, не дошедшие через очередь.
func (w *Worker) poll(ctx context.Context) {
	requeued, err := w.repo.RequeueStalled(ctx, w.staleAfter)
	if err != nil {
		w.logger.Error("failed to requeue stalled workflows", "error", err)
	} else if requeued > 0 {
		w.logger.Warn("requeued stalled workflows", "count", requeued)
	}

	instances, err := w.repo.ListPending(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("failed to list pending workflows", "error", err)
		return
	}

	if len(instances) == 0 {
		return
	}

	w.logger.Debug("poll found pending workflows", "count", len(instances))

	for i := range instances {
		if err := w.processWorkflow(ctx, instances[i].ID); err != nil {
			w.logger.Error("failed to process workflow from poll",
				"workflow_id", instances[i].ID,
				"error", err,
			)
		}
	}
}
