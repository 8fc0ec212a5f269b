// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "SALESBOT"

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Addr           string        `yaml:"addr" validate:"required"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	HandlerTimeout time.Duration `yaml:"handler_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Format   string `yaml:"format" validate:"oneof=json console"`
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url" validate:"required"`
	MaxConns int32  `yaml:"max_conns" validate:"min=1"`
}

type RedisConfig struct {
	URL      string        `yaml:"url" validate:"required"` // host:port
	Password string        `yaml:"password"`
	DB       int           `yaml:"db" validate:"min=0"`
	TTL      time.Duration `yaml:"ttl"`
}

type TelegramConfig struct {
	APIEndpoint    string        `yaml:"api_endpoint" validate:"required,contains=%s"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"min=1s"`
}

type WorkerConfig struct {
	// Embedded runs the delivery loop inside `serve`.
	Embedded    bool          `yaml:"embedded"`
	Interval    time.Duration `yaml:"interval" validate:"min=1s"`
	BatchSize   int           `yaml:"batch_size" validate:"min=1,max=500"`
	Concurrency int           `yaml:"concurrency" validate:"min=1,max=32"`
	ClaimLease  time.Duration `yaml:"claim_lease"`
	TickTimeout time.Duration `yaml:"tick_timeout"`
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key" validate:"omitempty,len=32"`
	// TriggerSecret signs the bearer tokens accepted by the queue trigger endpoint.
	TriggerSecret string `yaml:"trigger_secret"`
}

type PaymentsConfig struct {
	WebhookSecret string        `yaml:"webhook_secret"`
	InviteTTL     time.Duration `yaml:"invite_ttl"`
	LockTTL       time.Duration `yaml:"lock_ttl"`
}

type MessagingConfig struct {
	Locale     string        `yaml:"locale" validate:"oneof=pt en"`
	EchoLimit  int           `yaml:"echo_limit" validate:"min=0"`
	EchoWindow time.Duration `yaml:"echo_window"`
}

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Worker    WorkerConfig    `yaml:"worker"`
	Security  SecurityConfig  `yaml:"security"`
	Payments  PaymentsConfig  `yaml:"payments"`
	Messaging MessagingConfig `yaml:"messaging"`

	Runtime RuntimeConfig `yaml:"-"`
}

// envOverrides lists the settings that may come from the environment, e.g.
// SALESBOT_DATABASE_URL (or plain DATABASE_URL).
type envOverrides struct {
	HTTPAddr      string `envconfig:"HTTP_ADDR"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RedisURL      string `envconfig:"REDIS_URL"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	EncryptionKey string `envconfig:"ENCRYPTION_KEY"`
	TriggerSecret string `envconfig:"TRIGGER_SECRET"`
	PaymentSecret string `envconfig:"PAYMENT_SECRET"`
}

// LoadConfig reads the YAML file at path, applies environment overrides and defaults, and validates the result.
// A missing file is allowed when the environment provides everything required.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return err
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.HTTP.Addr, env.HTTPAddr)
	set(&cfg.Database.URL, env.DatabaseURL)
	set(&cfg.Redis.URL, env.RedisURL)
	set(&cfg.Redis.Password, env.RedisPassword)
	set(&cfg.Security.EncryptionKey, env.EncryptionKey)
	set(&cfg.Security.TriggerSecret, env.TriggerSecret)
	set(&cfg.Payments.WebhookSecret, env.PaymentSecret)
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.ReadTimeout <= 0 {
		cfg.HTTP.ReadTimeout = 10 * time.Second
	}
	if cfg.HTTP.WriteTimeout <= 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.HandlerTimeout <= 0 {
		cfg.HTTP.HandlerTimeout = 30 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Telegram.APIEndpoint == "" {
		cfg.Telegram.APIEndpoint = "https://api.telegram.org/bot%s/%s"
	}
	if cfg.Telegram.RequestTimeout <= 0 {
		cfg.Telegram.RequestTimeout = 5 * time.Second
	}
	if cfg.Worker.Interval <= 0 {
		cfg.Worker.Interval = 30 * time.Second
	}
	if cfg.Worker.BatchSize <= 0 {
		cfg.Worker.BatchSize = 50
	}
	if cfg.Worker.Concurrency <= 0 {
		cfg.Worker.Concurrency = 1
	}
	if cfg.Worker.ClaimLease <= 0 {
		cfg.Worker.ClaimLease = 10 * time.Minute
	}
	if cfg.Worker.TickTimeout <= 0 {
		cfg.Worker.TickTimeout = 5 * time.Minute
	}
	if cfg.Payments.InviteTTL <= 0 {
		cfg.Payments.InviteTTL = 24 * time.Hour
	}
	if cfg.Payments.LockTTL <= 0 {
		cfg.Payments.LockTTL = 30 * time.Second
	}
	if cfg.Messaging.Locale == "" {
		cfg.Messaging.Locale = "pt"
	}
	if cfg.Messaging.EchoLimit == 0 {
		cfg.Messaging.EchoLimit = 5
	}
	if cfg.Messaging.EchoWindow <= 0 {
		cfg.Messaging.EchoWindow = time.Minute
	}
}

func validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	// The lease must outlast a full tick or a slow run could have its rows re-claimed.
	if cfg.Worker.ClaimLease < cfg.Worker.TickTimeout {
		return fmt.Errorf("invalid config: worker.claim_lease (%s) must be >= worker.tick_timeout (%s)",
			cfg.Worker.ClaimLease, cfg.Worker.TickTimeout)
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 5 * time.Minute
	}
	return d
}
