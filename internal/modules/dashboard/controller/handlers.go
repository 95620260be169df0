package controller

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"smartbin-dashboard/internal/modules/dashboard/types"
	"smartbin-dashboard/internal/modules/dashboard/views"
	"smartbin-dashboard/internal/utils"
)

func (c *dashboardControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data := c.dashboardData()

	var buf bytes.Buffer
	if err := views.RenderDashboard(&buf, data); err != nil {
		slog.Error("dashboard template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteHTML(w, http.StatusOK, buf.Bytes())
}

func (c *dashboardControllerImpl) handleOverviewPartial(w http.ResponseWriter, r *http.Request) {
	data := c.dashboardData()

	var buf bytes.Buffer
	if err := views.RenderOverviewPartial(&buf, data); err != nil {
		slog.Error("overview partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render")
		return
	}
	utils.WriteHTML(w, http.StatusOK, buf.Bytes())
}

type snapshotResponse struct {
	Epoch     uint64                        `json:"epoch"`
	Readings  []types.Reading               `json:"readings"`
	Reports   []types.Report                `json:"reports"`
	Alerts    []types.Alert                 `json:"alerts"`
	UpdatedAt map[types.Resource]*time.Time `json:"updatedAt"`
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (c *dashboardControllerImpl) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := c.state.Snapshot()
	utils.WriteJSON(w, http.StatusOK, snapshotResponse{
		Epoch:    snap.Epoch,
		Readings: snap.Readings,
		Reports:  snap.Reports,
		Alerts:   snap.Alerts,
		UpdatedAt: map[types.Resource]*time.Time{
			types.ResourceReadings: optionalTime(snap.ReadingsUpdatedAt),
			types.ResourceReports:  optionalTime(snap.ReportsUpdatedAt),
			types.ResourceAlerts:   optionalTime(snap.AlertsUpdatedAt),
		},
	})
}

func (c *dashboardControllerImpl) handleFetches(w http.ResponseWriter, r *http.Request) {
	resource, limit, err := parseFetchesQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var records []types.FetchRecord
	if resource == "" {
		records, err = c.repository.LatestFetches(r.Context())
	} else {
		records, err = c.repository.RecentFetches(r.Context(), resource, limit)
	}
	if err != nil {
		slog.Error("fetches: query failed", "resource", resource, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load fetch log")
		return
	}
	utils.WriteJSON(w, http.StatusOK, records)
}
