package waitlist

import (
	"github.com/metll/metll-backend/config/router"
	"github.com/metll/metll-backend/internal/log"
	"github.com/metll/metll-backend/pkg/circuitbreaker"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type WaitlistServiceFactory interface {
	CreateService() WaitlistService
	CreateController(requestsPerMinute int) *router.RESTController
}

type DefaultWaitlistServiceFactory struct {
	db       *gorm.DB
	logger   *log.Logger
	registry prometheus.Registerer
	breaker  *circuitbreaker.Config
}

// NewWaitlistServiceFactory wires the gorm repository behind a circuit breaker.
// registry may be nil when metrics are disabled.
func NewWaitlistServiceFactory(db *gorm.DB, logger *log.Logger, registry prometheus.Registerer) WaitlistServiceFactory {
	return &DefaultWaitlistServiceFactory{
		db:       db,
		logger:   logger,
		registry: registry,
		breaker:  circuitbreaker.DefaultConfig(),
	}
}

func (f *DefaultWaitlistServiceFactory) CreateService() WaitlistService {
	repository := NewCircuitBreakingRepository(NewWaitlistRepository(f.db), f.breaker)
	return NewWaitlistService(f.logger, repository, f.registry)
}

func (f *DefaultWaitlistServiceFactory) CreateController(requestsPerMinute int) *router.RESTController {
	return NewWaitlistController(f.CreateService(), requestsPerMinute)
}
