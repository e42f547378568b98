package services

import (
	"go.uber.org/zap"

	"arogya_api_echo/internal/config"
)

// NewLogger builds the process logger: JSON in production, human-readable
// development output everywhere else.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
