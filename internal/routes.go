package internal

import (
	"net/http"

	"github.com/leehee16/monitoring-task-automation/internal/controllers"
	"github.com/leehee16/monitoring-task-automation/internal/providers"
)

func InitRoutes(statusController *controllers.StatusController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/report", http.HandlerFunc(statusController.GetReport))
	routers.Get("/classifications", http.HandlerFunc(statusController.GetClassifications))
	routers.Get("/user", http.HandlerFunc(statusController.GetUser))
	routers.Get("/run", http.HandlerFunc(statusController.GetRunStats))
	return routers
}
