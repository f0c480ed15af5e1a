// Textflow Gateway — HTTP-фасад durable-обработки текста.
//
// Gateway:
//   - Принимает запросы /reverse и /text
//   - Создаёт workflow instance в PostgreSQL и публикует его в RabbitMQ
//   - Блокирует вызывающего до результата или таймаута ожидания
//   - Отдаёт агрегированное здоровье зависимостей
//
// Gateway масштабируется горизонтально: каждая реплика держит
// собственную очередь на fanout результатов.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okrasov/textflow/internal/api"
	"github.com/okrasov/textflow/internal/gateway"
	"github.com/okrasov/textflow/internal/health"
	"github.com/okrasov/textflow/internal/llm"
	"github.com/okrasov/textflow/internal/mq"
	"github.com/okrasov/textflow/internal/repo"
	"github.com/okrasov/textflow/internal/telemetry"
)

var startTime = time.Now()

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting textflow-gateway")

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
		logger.Warn("RabbitMQ not available, relying on worker polling", "error", err)
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

	// LLM-клиент нужен gateway только для health probe
	llmClient := llm.NewClient(llm.ConfigFromEnv(logger))

	// Gateway
	gw := gateway.New(gateway.Config{
		Store:            instanceRepo,
		Publisher:        publisher,
		Conn:             mqConn,
		WaitTimeout:      envDuration(logger, "GATEWAY_WAIT_TIMEOUT", 0),
		InstanceDeadline: envDuration(logger, "WORKFLOW_DEADLINE", 0),
		Logger:           logger,
	})
	if err := gw.Start(ctx); err != nil {
		logger.Error("failed to start gateway", "error", err)
		os.Exit(1)
	}
	defer gw.Stop()

	// Health aggregator
	aggregator := health.New(health.Config{
		Probes: []health.Probe{
			&health.EngineProbe{Pool: pool, Conn: mqConn},
			&health.TextServiceProbe{Client: llmClient},
		},
		Logger: logger,
	})
	aggregator.Start(ctx)
	defer aggregator.Stop()

	// API handler
	handler := api.NewHandler(api.Config{
		Gateway: gw,
		Health:  aggregator,
		Logger:  logger,
	})

	mux := http.NewServeMux()

	// Liveness и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("textflow-gateway stopped")
}
