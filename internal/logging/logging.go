package logging

import (
	"go.uber.org/zap"

	"github.com/robzajac581/glowra-search-api-sub002/internal/config"
)

// New builds the process logger. LOG_MODE=development switches to the
// human-readable console encoder with debug level enabled; anything else
// gets the production JSON encoder.
func New() (*zap.Logger, error) {
	if config.GetEnv("LOG_MODE", "production") == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
