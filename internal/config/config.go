package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key"

type Config struct {
	ServiceName string `mapstructure:"SERVICE_NAME"`
	HTTPPort    int    `mapstructure:"HTTP_PORT"`
	GRPCPort    int    `mapstructure:"GRPC_PORT"`

	StoreDriver   string `mapstructure:"STORE_DRIVER"`
	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	ProfileCacheTTL time.Duration `mapstructure:"PROFILE_CACHE_TTL"`

	NATSURL string `mapstructure:"NATS_URL"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTIssuer string        `mapstructure:"JWT_ISSUER"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	ResetURLBase string `mapstructure:"RESET_URL_BASE"`

	MailProvider     string `mapstructure:"MAIL_PROVIDER"`
	SMTPHost         string `mapstructure:"SMTP_HOST"`
	SMTPPort         int    `mapstructure:"SMTP_PORT"`
	SMTPUser         string `mapstructure:"SMTP_USER"`
	SMTPPass         string `mapstructure:"SMTP_PASS"`
	FromName         string `mapstructure:"FROM_NAME"`
	FromEmail        string `mapstructure:"FROM_EMAIL"`
	MailerSendAPIKey string `mapstructure:"MAILERSEND_API_KEY"`
	MailerSendAPIURL string `mapstructure:"MAILERSEND_API_URL"`

	PrometheusMetricsPort string `mapstructure:"PROMETHEUS_METRICS_PORT"`
	OTELEndpoint          string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// UsesDefaultSecret reports whether the signing secret was left at its placeholder value.
func (c *Config) UsesDefaultSecret() bool {
	return c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "account-service")
	v.SetDefault("HTTP_PORT", 5000)
	v.SetDefault("GRPC_PORT", 50051)
	v.SetDefault("STORE_DRIVER", "mongo")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "account_service")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("PROFILE_CACHE_TTL", 10*time.Minute)
	v.SetDefault("NATS_URL", "")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ISSUER", "account-service")
	v.SetDefault("JWT_TTL", 12*time.Hour)
	v.SetDefault("RESET_URL_BASE", "http://localhost:5000/api/reset-password/")
	v.SetDefault("MAIL_PROVIDER", "log")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("FROM_NAME", "Account Service")
	v.SetDefault("FROM_EMAIL", "no-reply@example.com")
	v.SetDefault("MAILERSEND_API_KEY", "")
	v.SetDefault("MAILERSEND_API_URL", "https://api.mailersend.com/v1/email")
	v.SetDefault("PROMETHEUS_METRICS_PORT", "9093")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
}

// LoadConfig reads config.env from the working directory when present and lets environment
// variables override every key.
func LoadConfig() (*Config, error) {
	return load(viper.New(), ".")
}

func load(v *viper.Viper, path string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("env")
	v.AddConfigPath(path)
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case "mongo", "memory":
	default:
		return errors.New("STORE_DRIVER must be one of: mongo, memory")
	}
	switch c.MailProvider {
	case "smtp", "mailersend", "log":
	default:
		return errors.New("MAIL_PROVIDER must be one of: smtp, mailersend, log")
	}
	if c.StoreDriver == "mongo" && c.MongoURI == "" {
		return errors.New("MONGO_URI is required when STORE_DRIVER=mongo")
	}
	if c.StoreDriver == "mongo" && c.UsesDefaultSecret() {
		return errors.New("JWT_SECRET must be set to a non-default value when STORE_DRIVER=mongo")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	return nil
}
