package main

import (
	"log/slog"
	"time"

	"github.com/fastprodman/vapor/internal/config"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT"             default:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL"        default:"INFO"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" default:"10s"`
	JWTSecret       string        `env:"APP_JWT_SECRET"`
	TokenTTL        time.Duration `env:"APP_TOKEN_TTL"        default:"12h"`
	Files           config.FilesConfig
}
