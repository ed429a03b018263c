package logger

import (
	"go.uber.org/zap"
)

// New creates a zap logger configured for the given environment.
// "local" and "development" get the human-readable console encoder,
// everything else gets the production JSON encoder.
func New(env string) *zap.Logger {
	var cfg zap.Config

	switch env {
	case "local", "development":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
	}

	log, err := cfg.Build()
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}

	return log
}
