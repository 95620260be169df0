// Package store keeps the latest snapshot of each polled collection.
//
// Every slice is replaced wholesale; there is no merging. Writes carry the
// poll epoch they were issued under and are dropped once that epoch has
// been superseded, so responses arriving after teardown never land.
package store

import (
	"sync"
	"time"

	"smartbin-dashboard/internal/modules/dashboard/types"
)

type Store struct {
	mu    sync.RWMutex
	epoch uint64

	readings []types.Reading
	reports  []types.Report
	alerts   []types.Alert

	readingsAt time.Time
	reportsAt  time.Time
	alertsAt   time.Time

	now func() time.Time
}

// Snapshot is a consistent, read-only view of the store.
type Snapshot struct {
	Epoch    uint64
	Readings []types.Reading
	Reports  []types.Report
	Alerts   []types.Alert

	// Zero until the first successful fetch of that collection.
	ReadingsUpdatedAt time.Time
	ReportsUpdatedAt  time.Time
	AlertsUpdatedAt   time.Time
}

func New() *Store {
	return &Store{
		readings: []types.Reading{},
		reports:  []types.Report{},
		alerts:   []types.Alert{},
		now:      time.Now,
	}
}

// Begin starts a new epoch and returns it.
func (s *Store) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	return s.epoch
}

// Invalidate supersedes the current epoch without starting a new session.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.epoch++
	s.mu.Unlock()
}

// Epoch returns the current epoch.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// ReplaceReadings swaps in items if epoch is current and reports whether it did.
func (s *Store) ReplaceReadings(epoch uint64, items []types.Reading) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return false
	}
	s.readings = nonNil(items)
	s.readingsAt = s.now()
	return true
}

func (s *Store) ReplaceReports(epoch uint64, items []types.Report) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return false
	}
	s.reports = nonNil(items)
	s.reportsAt = s.now()
	return true
}

func (s *Store) ReplaceAlerts(epoch uint64, items []types.Alert) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return false
	}
	s.alerts = nonNil(items)
	s.alertsAt = s.now()
	return true
}

// Snapshot returns the current slices. Callers must not modify them: a
// replace installs a new backing array rather than writing into the old one.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Epoch:             s.epoch,
		Readings:          s.readings,
		Reports:           s.reports,
		Alerts:            s.alerts,
		ReadingsUpdatedAt: s.readingsAt,
		ReportsUpdatedAt:  s.reportsAt,
		AlertsUpdatedAt:   s.alertsAt,
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
