package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// APIBaseURL is the SmartBin backend serving /api/readings, /api/reports and /api/alerts.
	APIBaseURL    string
	APITimeout    time.Duration
	PollInterval  time.Duration
	ReadingsLimit int
	ReportsLimit  int
	AlertsLimit   int

	// DisplayLocation is used to localize timestamps on the dashboard.
	DisplayLocation *time.Location

	SQLiteDriver          string
	SQLiteDSN             string
	SQLitePath            string
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration
	SQLiteLogStatements   bool
	FetchLogRetention     time.Duration

	// MQTTBroker empty disables the alert relay.
	MQTTBroker      string
	MQTTPort        int
	MQTTClientID    string
	MQTTAlertsTopic string
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	httpAddr := envOr("HTTP_ADDR", ":8080")

	apiBaseURL := strings.TrimRight(envOr("API_BASE_URL", "http://localhost:5000"), "/")
	u, err := url.Parse(apiBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Config{}, fmt.Errorf("invalid API_BASE_URL %q (expected absolute http(s) URL)", apiBaseURL)
	}

	apiTimeout, err := positiveDuration("API_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	pollInterval, err := positiveDuration("POLL_INTERVAL", "3s")
	if err != nil {
		return Config{}, err
	}

	readingsLimit, err := nonNegativeInt("READINGS_LIMIT", "0")
	if err != nil {
		return Config{}, err
	}
	reportsLimit, err := nonNegativeInt("REPORTS_LIMIT", "0")
	if err != nil {
		return Config{}, err
	}
	alertsLimit, err := nonNegativeInt("ALERTS_LIMIT", "0")
	if err != nil {
		return Config{}, err
	}

	tzName := envOr("DISPLAY_TIMEZONE", "Local")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DISPLAY_TIMEZONE %q: %w", tzName, err)
	}

	driver := envOr("DB_DRIVER", "sqlite3")
	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	path := envOr("SQLITE_PATH", "data/dashboard.db")

	maxOpenConnsStr := envOr("DB_MAX_OPEN_CONNS", "1")
	maxOpenConns, err := strconv.Atoi(maxOpenConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_OPEN_CONNS %q: %w", maxOpenConnsStr, err)
	}

	maxIdleConnsStr := envOr("DB_MAX_IDLE_CONNS", "1")
	maxIdleConns, err := strconv.Atoi(maxIdleConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_IDLE_CONNS %q: %w", maxIdleConnsStr, err)
	}

	connMaxLifetimeStr := envOr("DB_CONN_MAX_LIFETIME", "0s")
	connMaxLifetime, err := time.ParseDuration(connMaxLifetimeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", connMaxLifetimeStr, err)
	}

	logSQLStr := envOr("DB_LOG_SQL", "false")
	logSQL, err := strconv.ParseBool(logSQLStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_LOG_SQL %q: %w", logSQLStr, err)
	}

	retention, err := positiveDuration("FETCH_LOG_RETENTION", "24h")
	if err != nil {
		return Config{}, err
	}

	mqttBroker := strings.TrimSpace(os.Getenv("MQTT_BROKER"))
	mqttPortStr := envOr("MQTT_PORT", "1883")
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil || mqttPort <= 0 || mqttPort > 65535 {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q (expected 1-65535)", mqttPortStr)
	}
	mqttClientID := strings.TrimSpace(os.Getenv("MQTT_CLIENT_ID"))
	if mqttClientID == "" {
		mqttClientID = "smartbin-dashboard-" + uuid.NewString()
	}
	mqttTopic := envOr("MQTT_ALERTS_TOPIC", "smartbin/dashboard/alerts")

	return Config{
		AppEnv:                appEnv,
		LogLevel:              level,
		HTTPAddr:              httpAddr,
		APIBaseURL:            apiBaseURL,
		APITimeout:            apiTimeout,
		PollInterval:          pollInterval,
		ReadingsLimit:         readingsLimit,
		ReportsLimit:          reportsLimit,
		AlertsLimit:           alertsLimit,
		DisplayLocation:       loc,
		SQLiteDriver:          driver,
		SQLiteDSN:             dsn,
		SQLitePath:            path,
		SQLiteMaxOpenConns:    maxOpenConns,
		SQLiteMaxIdleConns:    maxIdleConns,
		SQLiteConnMaxLifetime: connMaxLifetime,
		SQLiteLogStatements:   logSQL,
		FetchLogRetention:     retention,
		MQTTBroker:            mqttBroker,
		MQTTPort:              mqttPort,
		MQTTClientID:          mqttClientID,
		MQTTAlertsTopic:       mqttTopic,
	}, nil
}

// MQTTEnabled reports whether the alert relay should connect to a broker.
func (c Config) MQTTEnabled() bool {
	return c.MQTTBroker != ""
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func positiveDuration(key, def string) (time.Duration, error) {
	s := envOr(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q (must be > 0)", key, s)
	}
	return d, nil
}

func nonNegativeInt(key, def string) (int, error) {
	s := envOr(key, def)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q (must be >= 0)", key, s)
	}
	return n, nil
}
