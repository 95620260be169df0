package types

import "time"

// Reading is one point-in-time capacity measurement for a bin.
type Reading struct {
	ID              string  `json:"_id"`
	BinID           string  `json:"bin_id"`
	CapacityPercent float64 `json:"capacity_percent"`
	Timestamp       string  `json:"timestamp"`
}

// Report summarises the readings and events of one bin over a window.
type Report struct {
	ID                     string  `json:"_id"`
	BinID                  string  `json:"bin_id"`
	ReportStartTime        string  `json:"report_start_time"`
	ReportEndTime          string  `json:"report_end_time"`
	CapacityAvgPercent     float64 `json:"capacity_avg_percent"`
	CapacityMaxPercent     float64 `json:"capacity_max_percent"`
	CapacityMinPercent     float64 `json:"capacity_min_percent"`
	EmptiedCount           int     `json:"emptied_count"`
	LastEmptiedTime        *string `json:"last_emptied_time"`
	ReadingsCount          int     `json:"readings_count"`
	MaxFullDurationSeconds *int64  `json:"max_full_duration_seconds"`
}

// Alert is a bin condition that needs attention, e.g. BIN_FULL_ALERT.
type Alert struct {
	ID             string  `json:"_id"`
	BinID          string  `json:"bin_id"`
	Status         string  `json:"status"`
	Capacity       float64 `json:"capacity"`
	AlertTimestamp string  `json:"alert_timestamp"`
	Message        string  `json:"message"`
}

// Resource names the backend collection a fetch targets.
type Resource string

const (
	ResourceReadings Resource = "readings"
	ResourceReports  Resource = "reports"
	ResourceAlerts   Resource = "alerts"
)

// Resources lists every polled collection in display order.
var Resources = []Resource{ResourceReadings, ResourceReports, ResourceAlerts}

// FetchRecord is the outcome of one fetch, kept in the fetch log.
type FetchRecord struct {
	Resource   Resource  `json:"resource"`
	Epoch      uint64    `json:"epoch"`
	OK         bool      `json:"ok"`
	ItemCount  int       `json:"itemCount"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"durationMs"`
	FetchedAt  time.Time `json:"fetchedAt"`
}
