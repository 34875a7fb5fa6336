package di

import (
	"go.uber.org/zap"

	"heterobatch/application/ports"
	"heterobatch/application/services"
	"heterobatch/infrastructure/config"
	pkgerrors "heterobatch/pkg/errors"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	GraphRepo    ports.GraphRepository
	BatchService *services.BatchService
	ErrorHandler *pkgerrors.ErrorHandler
}
