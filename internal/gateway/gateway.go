// Package gateway — приём работы и ожидание результатов.
//
// Gateway принимает запросы, создаёт workflow instance в БД, публикует
// задание в очередь и блокирует вызывающего до завершения instance или
// истечения caller-facing таймаута. Таймаут ожидания независим от
// дедлайна instance: ушедший по таймауту вызывающий не останавливает
// выполнение.
//
// Результаты приходят двумя путями:
//   - событие workflow.completed из fanout exchange (каждая реплика
//     gateway держит собственную эксклюзивную очередь)
//   - polling fallback по БД — на случай потери события
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/okrasov/textflow/internal/domain"
	"github.com/okrasov/textflow/internal/llm"
	"github.com/okrasov/textflow/internal/mq"
)

// Default configuration values.
const (
	defaultWaitTimeout      = 60 * time.Second
	defaultInstanceDeadline = 2 * time.Minute
	defaultPollInterval     = 2 * time.Second
)

// Store — хранилище instances со стороны gateway.
type Store interface {
	Create(ctx context.Context, inst *domain.WorkflowInstance) error
	GetByID(ctx context.Context, id string) (*domain.WorkflowInstance, error)
}

// Publisher публикует событие о новом instance.
type Publisher interface {
	PublishWorkflowPending(ctx context.Context, payload mq.WorkflowPendingPayload) error
}

// Gateway — front door системы.
type Gateway struct {
	store     Store
	publisher Publisher
	conn      *mq.Connection

	waiters *waiterRegistry

	waitTimeout      time.Duration
	instanceDeadline time.Duration
	pollInterval     time.Duration

	consumer *mq.Consumer

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Gateway.
type Config struct {
	// Store — хранилище instances.
	Store Store

	// MQ
	Publisher Publisher
	Conn      *mq.Connection

	// WaitTimeout — сколько вызывающий ждёт результата (default: 60s).
	WaitTimeout time.Duration

	// InstanceDeadline — общий дедлайн каждого instance (default: 2m).
	InstanceDeadline time.Duration

	// PollInterval — интервал polling fallback (default: 2s).
	PollInterval time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Gateway.
func New(cfg Config) *Gateway {
	waitTimeout := cfg.WaitTimeout
	if waitTimeout <= 0 {
		waitTimeout = defaultWaitTimeout
	}

	instanceDeadline := cfg.InstanceDeadline
	if instanceDeadline <= 0 {
		instanceDeadline = defaultInstanceDeadline
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Gateway{
		store:            cfg.Store,
		publisher:        cfg.Publisher,
		conn:             cfg.Conn,
		waiters:          newWaiterRegistry(),
		waitTimeout:      waitTimeout,
		instanceDeadline: instanceDeadline,
		pollInterval:     pollInterval,
		logger:           logger,
	}
}

// Start запускает consumer результатов и polling fallback.
func (g *Gateway) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	g.cancelFunc = cancel

	if g.conn != nil {
		// Своя эксклюзивная очередь на fanout results: каждая реплика
		// gateway видит все завершения и доставляет те, что ждут у неё
		queue, err := mq.DeclareResultQueue(ctx, g.conn)
		if err != nil {
			return fmt.Errorf("declare result queue: %w", err)
		}

		g.consumer = mq.NewConsumer(g.conn, g.logger, mq.ConsumerConfig{
			Queue:   queue,
			Handler: g.handleWorkflowCompleted,
		})

		g.wg.Add(1)
		go func() {
			defer g.wg.Done()
			if err := g.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				g.logger.Error("result consumer error", "error", err)
			}
		}()
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.pollLoop(ctx)
	}()

	g.logger.Info("gateway started",
		"wait_timeout", g.waitTimeout,
		"instance_deadline", g.instanceDeadline,
	)
	return nil
}

// Stop останавливает Gateway.
func (g *Gateway) Stop() {
	g.logger.Info("stopping gateway...")

	if g.cancelFunc != nil {
		g.cancelFunc()
	}
	if g.consumer != nil {
		g.consumer.Stop()
	}

	g.wg.Wait()

	g.logger.Info("gateway stopped")
}

// SubmitReverse принимает запрос на разворот строки и ждёт результат.
func (g *Gateway) SubmitReverse(ctx context.Context, text string) (*Completion, error) {
	return g.submit(ctx, domain.KindReverse, text, "")
}

// SubmitText принимает запрос на обработку текста и ждёт результат.
func (g *Gateway) SubmitText(ctx context.Context, text, operation string) (*Completion, error) {
	op := llm.Operation(operation)
	if !op.Valid() {
		supported := make([]string, 0, len(llm.Operations()))
		for _, known := range llm.Operations() {
			supported = append(supported, string(known))
		}
		return nil, fmt.Errorf("%w: unsupported operation %q (supported: %s)",
			domain.ErrValidation, operation, strings.Join(supported, ", "))
	}
	return g.submit(ctx, domain.KindText, text, operation)
}

// submit создаёт instance, публикует задание и блокируется
// до результата, таймаута ожидания или отмены контекста.
//
// Валидация входа выполняется до создания instance: отклонённый
// запрос не расходует ни одной попытки activity.
func (g *Gateway) submit(ctx context.Context, kind domain.ActivityKind, text, operation string) (*Completion, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", domain.ErrValidation)
	}
	if len(text) > domain.MaxInputLength {
		return nil, fmt.Errorf("%w: input text too long (max %d characters)",
			domain.ErrValidation, domain.MaxInputLength)
	}

	inst := domain.NewInstance(kind, text, operation, time.Now().Add(g.instanceDeadline))

	if err := g.store.Create(ctx, inst); err != nil {
		return nil, fmt.Errorf("%w: create workflow: %v", domain.ErrEngineUnavailable, err)
	}

	// Регистрируем waiter до публикации: результат не может проскочить
	// мимо между publish и register
	ch := g.waiters.register(inst.ID)
	defer g.waiters.unregister(inst.ID)

	g.publishPending(ctx, inst)

	g.logger.Info("workflow submitted",
		"workflow_id", inst.ID,
		"kind", inst.Kind,
		"deadline", inst.Deadline,
	)

	timer := time.NewTimer(g.waitTimeout)
	defer timer.Stop()

	select {
	case completion := <-ch:
		return &completion, nil
	case <-timer.C:
		g.logger.Warn("caller wait timed out, workflow keeps running",
			"workflow_id", inst.ID,
			"wait_timeout", g.waitTimeout,
		)
		return nil, &WaitTimeoutError{WorkflowID: inst.ID}
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for workflow %s: %w", inst.ID, ctx.Err())
	}
}

// Lookup возвращает текущее состояние instance по id.
func (g *Gateway) Lookup(ctx context.Context, workflowID string) (*domain.WorkflowInstance, error) {
	return g.store.GetByID(ctx, workflowID)
}

// publishPending публикует событие workflow.pending.
// Ошибка публикации не фатальна: воркеры подхватят instance
// через собственный polling по БД.
func (g *Gateway) publishPending(ctx context.Context, inst *domain.WorkflowInstance) {
	if g.publisher == nil {
		g.logger.Warn("publisher not available, relying on worker polling",
			"workflow_id", inst.ID,
		)
		return
	}

	payload := mq.WorkflowPendingPayload{
		WorkflowID: inst.ID,
		Kind:       string(inst.Kind),
		Deadline:   inst.Deadline,
	}

	if err := g.publisher.PublishWorkflowPending(ctx, payload); err != nil {
		g.logger.Warn("failed to publish workflow.pending, relying on worker polling",
			"workflow_id", inst.ID,
			"error", err,
		)
	}
}

// handleWorkflowCompleted обрабатывает событие завершения instance.
// Событие всегда подтверждается: результаты, которых никто не ждёт
// на этой реплике, просто отбрасываются.
func (g *Gateway) handleWorkflowCompleted(_ context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.WorkflowCompletedPayload](&delivery.Message)
	if err != nil {
		g.logger.Error("failed to parse workflow.completed payload", "error", err)
		return nil
	}

	delivered := g.waiters.fulfill(Completion{
		WorkflowID: payload.WorkflowID,
		Status:     payload.Status,
		Result:     payload.Result,
		Error:      payload.Error,
		Attempts:   payload.Attempts,
		ElapsedMs:  payload.ElapsedMs,
	})

	g.logger.Debug("received workflow.completed event",
		"workflow_id", payload.WorkflowID,
		"status", payload.Status,
		"delivered", delivered,
	)

	return nil
}

// pollLoop — fallback на случай потери события workflow.completed:
// периодически проверяет в БД instances, которых кто-то ждёт.
func (g *Gateway) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.pollWaiting(ctx)
		}
	}
}

// pollWaiting доставляет из БД результаты завершённых instances,
// у которых остались waiters.
func (g *Gateway) pollWaiting(ctx context.Context) {
	for _, id := range g.waiters.pendingIDs() {
		inst, err := g.store.GetByID(ctx, id)
		if err != nil {
			g.logger.Debug("poll: failed to load workflow", "workflow_id", id, "error", err)
			continue
		}
		if !inst.IsFinished() {
			continue
		}

		if g.waiters.fulfill(Completion{
			WorkflowID: inst.ID,
			Status:     string(inst.Status),
			Result:     inst.Result,
			Error:      inst.Error,
			Attempts:   inst.Attempt,
			ElapsedMs:  inst.ElapsedMs(),
		}) {
			g.logger.Debug("poll: delivered completion from database", "workflow_id", inst.ID)
		}
	}
}
