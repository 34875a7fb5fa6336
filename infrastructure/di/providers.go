package di

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"heterobatch/application/ports"
	"heterobatch/application/services"
	"heterobatch/infrastructure/config"
	"heterobatch/infrastructure/persistence/memory"
	pkgerrors "heterobatch/pkg/errors"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	return zapCfg.Build()
}

// ProvideGraphRepository creates the in-memory graph repository
func ProvideGraphRepository(cfg *config.Config, logger *zap.Logger) ports.GraphRepository {
	return memory.NewGraphStore(cfg.MaxGraphs, logger)
}

// ProvideBatchService creates the batch service
func ProvideBatchService(
	graphRepo ports.GraphRepository,
	cfg *config.Config,
	logger *zap.Logger,
) *services.BatchService {
	return services.NewBatchService(graphRepo, cfg, logger)
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}
