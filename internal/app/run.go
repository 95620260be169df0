package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"smartbin-dashboard/internal/config"
	db "smartbin-dashboard/internal/db"
	httpapi "smartbin-dashboard/internal/httpapi"
	"smartbin-dashboard/internal/migrate"
	dashboard "smartbin-dashboard/internal/modules/dashboard"
	"smartbin-dashboard/internal/modules/dashboard/client"
	"smartbin-dashboard/internal/modules/dashboard/poller"
	"smartbin-dashboard/internal/modules/dashboard/repository"
	"smartbin-dashboard/internal/modules/dashboard/store"
	dashboardviews "smartbin-dashboard/internal/modules/dashboard/views"
	"smartbin-dashboard/internal/mqtt"
)

const pruneInterval = time.Hour

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"apiBaseURL", cfg.APIBaseURL,
		"apiTimeout", cfg.APITimeout,
		"pollInterval", cfg.PollInterval,
		"displayTimezone", cfg.DisplayLocation.String(),
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"sqliteMaxIdleConns", cfg.SQLiteMaxIdleConns,
		"sqliteConnMaxLifetime", cfg.SQLiteConnMaxLifetime,
		"fetchLogRetention", cfg.FetchLogRetention,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttAlertsTopic", cfg.MQTTAlertsTopic,
	)
	dbConn, err := db.Open(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close(dbConn)
		if closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(ctx, dbConn); err != nil {
		return err
	}
	slog.Info("database ready")

	if err := dashboardviews.LoadTemplates(); err != nil {
		return err
	}

	state := store.New()
	fetchLog := repository.NewRepository(dbConn)
	backend := client.New(cfg.APIBaseURL, cfg.APITimeout, client.Limits{
		Readings: cfg.ReadingsLimit,
		Reports:  cfg.ReportsLimit,
		Alerts:   cfg.AlertsLimit,
	})

	alerts := mqtt.NewAlertPublisher(cfg, slog.Default())
	// A missing broker must not block startup. The connect attempt outlives
	// connectCtx and paho keeps retrying until the broker answers.
	connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
	err = alerts.Connect(connectCtx)
	connectCancel()
	if err != nil {
		slog.Warn("mqtt not connected yet, retrying in background", "error", err)
	}

	mux := httpapi.NewMux(dbConn)
	dashboard.RegisterFeature(mux, dbConn, state, cfg.DisplayLocation, cfg.PollInterval)
	srv := httpapi.NewServer(cfg, mux)

	p := poller.New(backend, state, cfg.PollInterval, slog.Default(),
		poller.WithRecorder(fetchLog),
		poller.WithAlertPublisher(alerts),
	)

	bgCtx, stopBackground := context.WithCancel(ctx)
	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		if err := p.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("poller stopped", "error", err)
		}
	}()
	pruneDone := make(chan struct{})
	go func() {
		defer close(pruneDone)
		runRetention(bgCtx, fetchLog, cfg.FetchLogRetention, pruneInterval, time.Now)
	}()
	stopWorkers := func() {
		stopBackground()
		<-pollDone
		<-pruneDone
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		stopWorkers()
		alerts.Disconnect()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("poller stopping")
	stopWorkers()

	slog.Info("mqtt disconnecting")
	alerts.Disconnect()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
