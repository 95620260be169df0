package controller

import (
	"net/http"
	"time"

	"smartbin-dashboard/internal/modules/dashboard/repository"
	"smartbin-dashboard/internal/modules/dashboard/store"
	"smartbin-dashboard/internal/modules/dashboard/views"
)

// SnapshotSource is satisfied by *store.Store.
type SnapshotSource interface {
	Snapshot() store.Snapshot
}

type DashboardController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type dashboardControllerImpl struct {
	state      SnapshotSource
	repository repository.FetchLogRepository
	loc        *time.Location
	refresh    time.Duration
}

// NewDashboardController builds the page and API handlers. refresh is how
// often the page reloads its overview; it should match the poll interval.
func NewDashboardController(state SnapshotSource, repository repository.FetchLogRepository, loc *time.Location, refresh time.Duration) DashboardController {
	if loc == nil {
		loc = time.Local
	}
	if refresh <= 0 {
		refresh = views.DefaultRefresh
	}
	return &dashboardControllerImpl{state: state, repository: repository, loc: loc, refresh: refresh}
}

func (c *dashboardControllerImpl) dashboardData() *views.DashboardData {
	data := views.NewDashboardData(c.state.Snapshot(), c.loc)
	data.RefreshEvery = views.RefreshTrigger(c.refresh)
	return data
}

func (c *dashboardControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleDashboard)
	mux.HandleFunc("GET /partials/overview", c.handleOverviewPartial)
	mux.HandleFunc("GET /api/v1/snapshot", c.handleSnapshot)
	mux.HandleFunc("GET /api/v1/fetches", c.handleFetches)
	mux.Handle("GET /static/", views.StaticHandler("/static/"))
}
