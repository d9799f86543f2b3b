package monitoring

import (
	"github.com/metll/metll-backend/config/router"
	"github.com/metll/metll-backend/internal/log"
)

type MonitoringControllerFactory interface {
	CreateController() *router.RESTController
}

type DefaultMonitoringControllerFactory struct {
	db      Database
	logger  *log.Logger
	cache   Cache
	options Options
}

// NewMonitoringControllerFactory accepts a nil cache when Redis is not configured.
func NewMonitoringControllerFactory(db Database, logger *log.Logger, cache Cache, options Options) MonitoringControllerFactory {
	return &DefaultMonitoringControllerFactory{
		db:      db,
		logger:  logger,
		cache:   cache,
		options: options,
	}
}

func (f *DefaultMonitoringControllerFactory) CreateController() *router.RESTController {
	return NewMonitoringController(f.db, f.logger, f.cache, f.options)
}
