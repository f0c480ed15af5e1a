package main

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// envDuration читает duration из переменной окружения.
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

// envInt читает целое из переменной окружения.
func envInt(logger *slog.Logger, name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn("invalid integer in environment, using default",
			"name", name,
			"value", v,
			"error", err,
		)
		return fallback
	}
	return n
}
