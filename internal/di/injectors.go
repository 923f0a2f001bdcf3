//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"github.com/leehee16/monitoring-task-automation/internal"
	"github.com/leehee16/monitoring-task-automation/internal/controllers"
	"github.com/leehee16/monitoring-task-automation/internal/history"
	"github.com/leehee16/monitoring-task-automation/internal/providers"
	"github.com/leehee16/monitoring-task-automation/internal/services"
	"github.com/leehee16/monitoring-task-automation/internal/source"
	"github.com/leehee16/monitoring-task-automation/internal/structures"
)

// provideRunner adapts the run service to the scheduler's Runner port.
func provideRunner(rs services.RunServiceInterface) history.Runner {
	return rs
}

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewCacheProvider,
		providers.NewMetricsProvider,

		history.NewZstdCompressor,
		history.NewStore,
		history.NewArchiver,
		history.NewIngester,
		history.NewScheduler,

		source.NewFileSource,
		services.NewCollectorService,
		services.NewRunService,
		provideRunner,

		controllers.NewStatusController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
