package infrastructure

import "go.uber.org/zap"

// NewLogger returns a production JSON logger, or a human-readable one in dev.
func NewLogger(cfg Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
