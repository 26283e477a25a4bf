// Package logger constructs the application logger.
package logger

import (
	"go.uber.org/zap"

	"github.com/example/revise/internal/config"
)

// New returns a production logger in prod environments and a human-readable
// development logger everywhere else.
func New(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Env == "prod" || cfg.Env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
