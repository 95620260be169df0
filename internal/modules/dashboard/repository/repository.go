// Package repository persists the fetch log: one row per completed backend fetch.
package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"smartbin-dashboard/internal/modules/dashboard/types"
)

//go:embed sql/insert-fetch.sql
var insertFetchSQL string

//go:embed sql/get-latest-fetches.sql
var getLatestFetchesSQL string

//go:embed sql/get-recent-fetches.sql
var getRecentFetchesSQL string

//go:embed sql/delete-fetches-before.sql
var deleteFetchesBeforeSQL string

// timeLayout is fixed-width so fetched_at sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type FetchLogRepository interface {
	InsertFetch(ctx context.Context, rec types.FetchRecord) error
	LatestFetches(ctx context.Context) ([]types.FetchRecord, error)
	RecentFetches(ctx context.Context, resource types.Resource, limit int) ([]types.FetchRecord, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) FetchLogRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) InsertFetch(ctx context.Context, rec types.FetchRecord) error {
	var errVal any
	if rec.Error != "" {
		errVal = rec.Error
	}
	_, err := r.db.ExecContext(ctx, insertFetchSQL,
		string(rec.Resource),
		int64(rec.Epoch),
		rec.OK,
		rec.ItemCount,
		errVal,
		rec.DurationMs,
		rec.FetchedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert fetch: %w", err)
	}
	return nil
}

// LatestFetches returns the most recent record per resource, ordered by resource name.
func (r *repositoryImpl) LatestFetches(ctx context.Context) ([]types.FetchRecord, error) {
	rows, err := r.db.QueryContext(ctx, getLatestFetchesSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close latest fetches rows", "error", err)
		}
	}()
	return scanFetches(rows)
}

// RecentFetches returns up to limit records for resource, newest first.
func (r *repositoryImpl) RecentFetches(ctx context.Context, resource types.Resource, limit int) ([]types.FetchRecord, error) {
	rows, err := r.db.QueryContext(ctx, getRecentFetchesSQL, string(resource), limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close recent fetches rows", "error", err)
		}
	}()
	return scanFetches(rows)
}

// PruneBefore deletes records older than cutoff and returns how many were removed.
func (r *repositoryImpl) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteFetchesBeforeSQL, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune fetches: %w", err)
	}
	return res.RowsAffected()
}

func scanFetches(rows *sql.Rows) ([]types.FetchRecord, error) {
	out := []types.FetchRecord{}
	for rows.Next() {
		var (
			rec      types.FetchRecord
			resource string
			epoch    int64
			ts       string
		)
		if err := rows.Scan(&resource, &epoch, &rec.OK, &rec.ItemCount, &rec.Error, &rec.DurationMs, &ts); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse fetched_at %q: %w", ts, err)
		}
		rec.Resource = types.Resource(resource)
		rec.Epoch = uint64(epoch)
		rec.FetchedAt = t
		out = append(out, rec)
	}
	return out, rows.Err()
}
