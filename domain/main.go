package domain

import (
	"github.com/metll/metll-backend/config"
	"github.com/metll/metll-backend/domain/monitoring"
	"github.com/metll/metll-backend/domain/waitlist"
)

// SetupCoreDomain mounts every controller. The database is opened here, when
// the waitlist controller needs it, and a missing configuration aborts startup.
func SetupCoreDomain(appConfig *config.ApplicationConfig) error {
	rs := appConfig.RouterService

	rs.MountController(monitoring.NewMonitoringControllerFactory(
		appConfig.Database,
		appConfig.Logger,
		appConfig.Cache,
		monitoring.Options{
			PingMessage: appConfig.Config.PingMessage,
			APIBaseURL:  appConfig.Config.APIBaseURL,
		},
	).CreateController())

	database, err := appConfig.OpenDatabase()
	if err != nil {
		appConfig.Logger.Error("Failed to open database", "error", err)
		return err
	}

	db, err := database.DB()
	if err != nil {
		return err
	}

	waitlistFactory := waitlist.NewWaitlistServiceFactory(db, appConfig.Logger, rs.MetricsRegisterer())
	rs.MountController(waitlistFactory.CreateController(appConfig.Config.WaitlistRateLimitRequests))

	return nil
}
