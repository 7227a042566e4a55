package config

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "CUIDAMED"

var (
	ErrJWTSecretMissing = errors.New("CUIDAMED_JWT_SECRET is required")
	ErrVAPIDKeyPair     = errors.New("CUIDAMED_VAPID_PUBLIC_KEY and CUIDAMED_VAPID_PRIVATE_KEY must be set together")
	ErrInvalidInterval  = errors.New("CUIDAMED_REMINDER_INTERVAL must be positive")
)

// Config is loaded from CUIDAMED_* environment variables.
type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	DBPath    string `envconfig:"DB_PATH" default:"cuidamed.db"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// Timezone in which intake times are interpreted.
	Timezone string `envconfig:"TIMEZONE" default:"UTC"`

	JWTSecret string        `envconfig:"JWT_SECRET"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"720h"`

	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDSubscriber string `envconfig:"VAPID_SUBSCRIBER" default:"mailto:noreply@cuidamed.app"`

	ExpoPushURL     string `envconfig:"EXPO_PUSH_URL" default:"https://exp.host/--/api/v2/push/send"`
	ExpoAccessToken string `envconfig:"EXPO_ACCESS_TOKEN"`

	ReminderInterval time.Duration `envconfig:"REMINDER_INTERVAL" default:"1m"`

	// Origin patterns accepted for websocket upgrades. Empty allows any origin.
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrJWTSecretMissing
	}
	if (c.VAPIDPublicKey == "") != (c.VAPIDPrivateKey == "") {
		return ErrVAPIDKeyPair
	}
	if c.ReminderInterval <= 0 {
		return ErrInvalidInterval
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
