package app

import (
	"errors"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9091"`

	SnapshotURL          string        `envconfig:"SNAPSHOT_URL"`
	SnapshotGCSBucket    string        `envconfig:"SNAPSHOT_GCS_BUCKET"`
	SnapshotGCSObject    string        `envconfig:"SNAPSHOT_GCS_OBJECT"`
	GCPServiceAccountKey string        `envconfig:"GCP_SERVICE_ACCOUNT_KEY"`
	SnapshotTTL          time.Duration `envconfig:"SNAPSHOT_TTL" default:"1h"`
	SnapshotLocalTTL     time.Duration `envconfig:"SNAPSHOT_LOCAL_TTL" default:"30s"`
	SnapshotFetchTimeout time.Duration `envconfig:"SNAPSHOT_FETCH_TIMEOUT" default:"20s"`
	SnapshotRefreshCron  string        `envconfig:"SNAPSHOT_REFRESH_CRON" default:"*/30 * * * *"`

	NotesWebAppURL   string `envconfig:"NOTES_WEBAPP_URL"`
	NotesWebAppToken string `envconfig:"NOTES_WEBAPP_TOKEN"`

	AllowedEmails   string `envconfig:"ALLOWED_EMAILS"`
	AuthEmailHeader string `envconfig:"AUTH_EMAIL_HEADER" default:"X-Goog-Authenticated-User-Email"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SnapshotGCSBucket != "" && cfg.SnapshotGCSObject == "" {
		return nil, errors.New("SNAPSHOT_GCS_OBJECT must be set with SNAPSHOT_GCS_BUCKET")
	}
	if cfg.SnapshotTTL < 0 {
		return nil, errors.New("SNAPSHOT_TTL must not be negative")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// UsesGCS reports whether the snapshot is read from Cloud Storage. A
// configured bucket takes precedence over SNAPSHOT_URL.
func (c *Config) UsesGCS() bool {
	return c != nil && strings.TrimSpace(c.SnapshotGCSBucket) != "" && strings.TrimSpace(c.SnapshotGCSObject) != ""
}
