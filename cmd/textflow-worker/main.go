// Textflow Worker — выполняет workflow instances.
//
// Worker:
//   - Получает instances из RabbitMQ (polling по БД как fallback)
//   - Клеймит instance и ведёт его через координатор с retry-политикой
//   - Публикует результат для gateway
//   - Периодически удаляет завершённые instances старше периода хранения
//
// Workers масштабируются горизонтально.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okrasov/textflow/internal/domain"
	"github.com/okrasov/textflow/internal/janitor"
	"github.com/okrasov/textflow/internal/llm"
	"github.com/okrasov/textflow/internal/mq"
	"github.com/okrasov/textflow/internal/repo"
	"github.com/okrasov/textflow/internal/retry"
	"github.com/okrasov/textflow/internal/telemetry"
	"github.com/okrasov/textflow/internal/worker"
	"github.com/okrasov/textflow/internal/workflow"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting textflow-worker")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	instanceRepo := repo.NewInstanceRepo(pool)

	// RabbitMQ
	var publisher *mq.Publisher
	var mqConn *mq.Connection
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err = mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
		mqConn = nil
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		// Создаём топологию
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
	}

	// LLM-клиент для activity вида "text"
	llmClient := llm.NewClient(llm.ConfigFromEnv(logger))

	// Retry-политика и координаторы
	policy := retry.DefaultPolicy()
	if v := envInt(logger, "RETRY_MAX_ATTEMPTS", 0); v > 0 {
		policy.MaxAttempts = v
	}

	attemptTimeout := envDuration(logger, "ATTEMPT_TIMEOUT", 0)
	coordinators := map[domain.ActivityKind]*workflow.Coordinator{
		domain.KindReverse: workflow.New(workflow.Config{
			Policy:         policy,
			AttemptTimeout: attemptTimeout,
			Logger:         logger,
		}),
		domain.KindText: workflow.New(workflow.Config{
			Policy:         policy,
			AttemptTimeout: attemptTimeout,
			Logger:         logger,
		}),
	}

	// Создаём worker
	w := worker.New(worker.Config{
		Repo:         instanceRepo,
		Publisher:    publisher,
		Conn:         mqConn,
		Registry:     worker.NewRegistry(llmClient),
		Coordinators: coordinators,
		Concurrency:  envInt(logger, "WORKER_CONCURRENCY", 0),
		Logger:       logger,
	})

	// Запускаем worker
	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// Janitor: очистка завершённых instances
	j := janitor.New(janitor.Config{
		Store:     instanceRepo,
		Schedule:  os.Getenv("JANITOR_SCHEDULE"),
		Retention: envDuration(logger, "JANITOR_RETENTION", 0),
		Logger:    logger,
	})
	if err := j.Start(ctx); err != nil {
		logger.Error("failed to start janitor", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8082"
	if v := os.Getenv("WORKER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	// Останавливаем worker и janitor
	w.Stop()
	j.Stop()
	logger.Info("textflow-worker stopped")
}
