package main

import (
	"log/slog"
	"os"
	"time"
)

// envDuration читает duration из переменной окружения.
// Пустое значение или fallback <= 0 оставляют default компонента.
func envDuration(logger *slog.Logger, name string, fallback time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn("invalid duration in environment, using default",
			"name", name,
			"value", v,
			"error", err,
		)
		return fallback
	}
	return d
}
