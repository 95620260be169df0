package views

import (
	"strconv"
	"time"

	"smartbin-dashboard/internal/modules/dashboard/format"
	"smartbin-dashboard/internal/modules/dashboard/store"
	"smartbin-dashboard/internal/modules/dashboard/types"
)

const NoAlertsText = "No active alerts"

// DefaultRefresh is the page refresh used when no poll interval is known.
const DefaultRefresh = 3 * time.Second

type AlertCard struct {
	ID        string
	BinID     string
	Status    string
	Timestamp string
	Message   string
	Capacity  string
}

type StatCard struct {
	Label string
	Value int
}

// ReadingRow is one line of the readings table. BarWidth is the raw
// capacity value; the bar container clips anything past 100.
type ReadingRow struct {
	ID        string
	BinID     string
	BarWidth  string
	Percent   string
	Timestamp string
}

type ReportRow struct {
	ID              string
	BinID           string
	AvgPercent      string
	MaxPercent      string
	MinPercent      string
	EmptiedCount    int
	MaxFullDuration string
	LastEmptied     string
	ReadingsCount   int
	ReportEnd       string
}

type DashboardData struct {
	Alerts       []AlertCard
	NoAlertsText string
	Stats        []StatCard
	Readings     []ReadingRow
	Reports      []ReportRow
	LastUpdated  string
	// RefreshEvery is the htmx interval for reloading the overview, e.g. "3s".
	RefreshEvery string
}

// NewDashboardData derives everything the page shows from one snapshot.
// It never fails: odd values are displayed as received.
func NewDashboardData(snap store.Snapshot, loc *time.Location) *DashboardData {
	if loc == nil {
		loc = time.Local
	}

	data := &DashboardData{
		Alerts:       make([]AlertCard, 0, len(snap.Alerts)),
		NoAlertsText: NoAlertsText,
		Readings:     make([]ReadingRow, 0, len(snap.Readings)),
		Reports:      make([]ReportRow, 0, len(snap.Reports)),
		Stats: []StatCard{
			{Label: "Total Bins", Value: DistinctBins(snap.Readings)},
			{Label: "Total Readings", Value: len(snap.Readings)},
			{Label: "Generated Reports", Value: len(snap.Reports)},
		},
		LastUpdated:  lastUpdated(snap, loc),
		RefreshEvery: RefreshTrigger(DefaultRefresh),
	}

	for _, a := range snap.Alerts {
		data.Alerts = append(data.Alerts, AlertCard{
			ID:        a.ID,
			BinID:     a.BinID,
			Status:    a.Status,
			Timestamp: format.Timestamp(a.AlertTimestamp, loc),
			Message:   a.Message,
			Capacity:  format.Percent(a.Capacity),
		})
	}

	for _, r := range snap.Readings {
		data.Readings = append(data.Readings, ReadingRow{
			ID:        r.ID,
			BinID:     r.BinID,
			BarWidth:  format.Number(r.CapacityPercent),
			Percent:   format.Percent(r.CapacityPercent),
			Timestamp: format.Timestamp(r.Timestamp, loc),
		})
	}

	for _, r := range snap.Reports {
		data.Reports = append(data.Reports, ReportRow{
			ID:              r.ID,
			BinID:           r.BinID,
			AvgPercent:      format.Percent(r.CapacityAvgPercent),
			MaxPercent:      format.Percent(r.CapacityMaxPercent),
			MinPercent:      format.Percent(r.CapacityMinPercent),
			EmptiedCount:    r.EmptiedCount,
			MaxFullDuration: format.Duration(r.MaxFullDurationSeconds),
			LastEmptied:     format.OptionalTimestamp(r.LastEmptiedTime, loc),
			ReadingsCount:   r.ReadingsCount,
			ReportEnd:       format.Timestamp(r.ReportEndTime, loc),
		})
	}

	return data
}

// RefreshTrigger formats d for an htmx "every" trigger. Whole seconds use
// the s suffix, anything else is rounded to milliseconds. Non-positive
// durations fall back to DefaultRefresh.
func RefreshTrigger(d time.Duration) string {
	if d < time.Millisecond {
		d = DefaultRefresh
	}
	if d%time.Second == 0 {
		return strconv.FormatInt(int64(d/time.Second), 10) + "s"
	}
	return strconv.FormatInt(int64(d.Round(time.Millisecond)/time.Millisecond), 10) + "ms"
}

// DistinctBins counts unique bin ids across readings.
func DistinctBins(readings []types.Reading) int {
	seen := make(map[string]struct{}, len(readings))
	for _, r := range readings {
		seen[r.BinID] = struct{}{}
	}
	return len(seen)
}

func lastUpdated(snap store.Snapshot, loc *time.Location) string {
	var latest time.Time
	for _, t := range []time.Time{snap.ReadingsUpdatedAt, snap.ReportsUpdatedAt, snap.AlertsUpdatedAt} {
		if t.After(latest) {
			latest = t
		}
	}
	if latest.IsZero() {
		return format.Placeholder
	}
	return latest.In(loc).Format(format.DisplayLayout)
}
