package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"smartbin-dashboard/internal/migrate"
	"smartbin-dashboard/internal/modules/dashboard/types"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Errorf("close db: %v", closeErr)
		}
	})
	if err := migrate.Run(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func rec(resource types.Resource, epoch uint64, ok bool, offset time.Duration) types.FetchRecord {
	r := types.FetchRecord{
		Resource:   resource,
		Epoch:      epoch,
		OK:         ok,
		ItemCount:  3,
		DurationMs: 12,
		FetchedAt:  base.Add(offset),
	}
	if !ok {
		r.ItemCount = 0
		r.Error = "alerts: unexpected status 500"
	}
	return r
}

func TestLatestFetches_Empty(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	got, err := repo.LatestFetches(context.Background())
	if err != nil {
		t.Fatalf("LatestFetches: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("LatestFetches = %#v; want empty non-nil", got)
	}
}

func TestInsertFetch_LatestPerResource(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	inserts := []types.FetchRecord{
		rec(types.ResourceReadings, 1, true, 0),
		rec(types.ResourceReadings, 1, true, 3*time.Second),
		rec(types.ResourceAlerts, 1, true, 0),
		rec(types.ResourceAlerts, 1, false, 500*time.Millisecond),
		rec(types.ResourceReports, 1, true, time.Second),
	}
	for _, r := range inserts {
		if err := repo.InsertFetch(ctx, r); err != nil {
			t.Fatalf("InsertFetch(%+v): %v", r, err)
		}
	}

	got, err := repo.LatestFetches(ctx)
	if err != nil {
		t.Fatalf("LatestFetches: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("LatestFetches: got %d records, want 3: %+v", len(got), got)
	}

	byResource := map[types.Resource]types.FetchRecord{}
	for _, r := range got {
		byResource[r.Resource] = r
	}

	alerts := byResource[types.ResourceAlerts]
	if alerts.OK || alerts.Error == "" {
		t.Errorf("latest alerts = %+v; want the failed fetch", alerts)
	}
	if !alerts.FetchedAt.Equal(base.Add(500 * time.Millisecond)) {
		t.Errorf("alerts.FetchedAt = %v", alerts.FetchedAt)
	}

	readings := byResource[types.ResourceReadings]
	if !readings.OK || readings.ItemCount != 3 || readings.DurationMs != 12 || readings.Epoch != 1 {
		t.Errorf("latest readings = %+v", readings)
	}
	if !readings.FetchedAt.Equal(base.Add(3 * time.Second)) {
		t.Errorf("readings.FetchedAt = %v; want newest", readings.FetchedAt)
	}
	if readings.Error != "" {
		t.Errorf("readings.Error = %q; want empty", readings.Error)
	}
}

func TestRecentFetches_NewestFirstWithLimit(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := repo.InsertFetch(ctx, rec(types.ResourceReports, uint64(i+1), true, time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("InsertFetch: %v", err)
		}
	}
	if err := repo.InsertFetch(ctx, rec(types.ResourceAlerts, 9, true, 10*time.Second)); err != nil {
		t.Fatalf("InsertFetch: %v", err)
	}

	got, err := repo.RecentFetches(ctx, types.ResourceReports, 2)
	if err != nil {
		t.Fatalf("RecentFetches: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("RecentFetches: got %d, want 2", len(got))
	}
	if got[0].Epoch != 5 || got[1].Epoch != 4 {
		t.Errorf("epochs = %d, %d; want 5, 4", got[0].Epoch, got[1].Epoch)
	}
	for _, r := range got {
		if r.Resource != types.ResourceReports {
			t.Errorf("resource = %q; want reports", r.Resource)
		}
	}
}

func TestPruneBefore(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	for _, off := range []time.Duration{-2 * time.Hour, -90 * time.Minute, -time.Minute, 0} {
		if err := repo.InsertFetch(ctx, rec(types.ResourceReadings, 1, true, off)); err != nil {
			t.Fatalf("InsertFetch: %v", err)
		}
	}

	n, err := repo.PruneBefore(ctx, base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("PruneBefore: %v", err)
	}
	if n != 2 {
		t.Errorf("PruneBefore removed %d; want 2", n)
	}

	got, err := repo.RecentFetches(ctx, types.ResourceReadings, 10)
	if err != nil {
		t.Fatalf("RecentFetches: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("remaining = %d; want 2", len(got))
	}
}

func TestFetchedAt_sortsAcrossFractionalSeconds(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	// Whole-second timestamp inserted last but earlier in time than the fractional one.
	if err := repo.InsertFetch(ctx, rec(types.ResourceAlerts, 2, true, 1500*time.Millisecond)); err != nil {
		t.Fatal(err)
	}
	if err := repo.InsertFetch(ctx, rec(types.ResourceAlerts, 1, true, time.Second)); err != nil {
		t.Fatal(err)
	}

	got, err := repo.LatestFetches(ctx)
	if err != nil {
		t.Fatalf("LatestFetches: %v", err)
	}
	if len(got) != 1 || got[0].Epoch != 2 {
		t.Fatalf("LatestFetches = %+v; want epoch 2 (12:00:01.5)", got)
	}
}
