package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string   `envconfig:"SERVICE_NAME" default:"rmas"`
	HTTPPort     string   `envconfig:"HTTP_PORT" default:"8080"`
	PostgresDSN  string   `envconfig:"POSTGRES_DSN"`
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`

	// AppBaseURL prefixes member-facing links in notification emails.
	AppBaseURL string `envconfig:"APP_BASE_URL" default:"http://localhost:8080"`

	// LocationsPath points at the YAML hierarchy reference file; RolesPath at
	// the role catalog.
	LocationsPath string `envconfig:"LOCATIONS_PATH" default:"config/locations.yaml"`
	RolesPath     string `envconfig:"ROLES_PATH" default:"config/roles.yaml"`

	OtpTTL           time.Duration `envconfig:"OTP_TTL" default:"10m"`
	TokenTTL         time.Duration `envconfig:"TOKEN_TTL" default:"15m"`
	OtpRequestLimit  int           `envconfig:"OTP_REQUEST_LIMIT" default:"5"`
	OtpRequestWindow time.Duration `envconfig:"OTP_REQUEST_WINDOW" default:"1h"`

	RenderBaseURL  string        `envconfig:"RENDER_BASE_URL"`
	RenderTimeout  time.Duration `envconfig:"RENDER_TIMEOUT" default:"20s"`
	RenderAttempts int           `envconfig:"RENDER_ATTEMPTS" default:"3"`

	SMTPAddr string `envconfig:"SMTP_ADDR" default:"localhost:25"`
	SMTPFrom string `envconfig:"SMTP_FROM" default:"noreply@rmas.org"`

	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"2s"`
	OtpSweepInterval   time.Duration `envconfig:"OTP_SWEEP_INTERVAL" default:"5m"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
