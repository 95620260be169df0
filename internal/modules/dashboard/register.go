package dashboard

import (
	"database/sql"
	"net/http"
	"time"

	"smartbin-dashboard/internal/modules/dashboard/controller"
	"smartbin-dashboard/internal/modules/dashboard/repository"
)

func RegisterFeature(mux *http.ServeMux, db *sql.DB, state controller.SnapshotSource, loc *time.Location, refresh time.Duration) {
	fetchLogRepository := repository.NewRepository(db)
	dashboardController := controller.NewDashboardController(state, fetchLogRepository, loc, refresh)
	dashboardController.RegisterRoutes(mux)
}
