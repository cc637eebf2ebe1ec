package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Events   EventsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	CORSAllowedOrigins    []string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	RunMigrations   bool
	MigrationsDir   string
	ConnMaxIdleSec  int32
	ConnMaxLifeSec  int32
	ConnectAttempts uint
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret           string
	AccessTokenTTL      time.Duration
	RefreshTokenTTL     time.Duration
	RotateRefreshTokens bool
	BcryptCost          int
	BootstrapAdmin      BootstrapAdmin
}

// BootstrapAdmin seeds an administrator on first start when all fields are set.
type BootstrapAdmin struct {
	Username string
	Email    string
	Password string
}

// Enabled reports whether every bootstrap field is present.
func (b BootstrapAdmin) Enabled() bool {
	return b.Username != "" && b.Email != "" && b.Password != ""
}

// EventsConfig controls audit fan-out.
type EventsConfig struct {
	RedisChannel string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "auth-service")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_HOST", "0.0.0.0")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_VERSION", "dev")
	v.SetDefault("HTTP_REQUEST_TIMEOUT_SECONDS", 30)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	v.SetDefault("POSTGRES_MAX_CONNS", 10)
	v.SetDefault("POSTGRES_MIN_CONNS", 2)
	v.SetDefault("POSTGRES_RUN_MIGRATIONS", true)
	v.SetDefault("POSTGRES_MIGRATIONS_DIR", "migrations")
	v.SetDefault("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)
	v.SetDefault("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)
	v.SetDefault("POSTGRES_CONNECT_ATTEMPTS", 5)

	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("EVENTS_REDIS_CHANNEL", "auth-service:audit")

	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("AUTH_ACCESS_TOKEN_TTL", 15*time.Minute)
	v.SetDefault("AUTH_REFRESH_TOKEN_TTL", 7*24*time.Hour)
	v.SetDefault("AUTH_ROTATE_REFRESH_TOKENS", false)
	v.SetDefault("AUTH_BCRYPT_COST", 10)
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name:                  v.GetString("APP_NAME"),
			Env:                   v.GetString("APP_ENV"),
			Host:                  v.GetString("APP_HOST"),
			Port:                  v.GetString("APP_PORT"),
			Version:               v.GetString("APP_VERSION"),
			RequestTimeoutSeconds: v.GetInt("HTTP_REQUEST_TIMEOUT_SECONDS"),
			CORSAllowedOrigins:    splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Postgres: PostgresConfig{
			DSN:             v.GetString("POSTGRES_DSN"),
			MaxConns:        v.GetInt32("POSTGRES_MAX_CONNS"),
			MinConns:        v.GetInt32("POSTGRES_MIN_CONNS"),
			RunMigrations:   v.GetBool("POSTGRES_RUN_MIGRATIONS"),
			MigrationsDir:   v.GetString("POSTGRES_MIGRATIONS_DIR"),
			ConnMaxIdleSec:  v.GetInt32("POSTGRES_CONN_MAX_IDLE_SECONDS"),
			ConnMaxLifeSec:  v.GetInt32("POSTGRES_CONN_MAX_LIFE_SECONDS"),
			ConnectAttempts: v.GetUint("POSTGRES_CONNECT_ATTEMPTS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Auth: AuthConfig{
			JWTSecret:           v.GetString("AUTH_JWT_SECRET"),
			AccessTokenTTL:      v.GetDuration("AUTH_ACCESS_TOKEN_TTL"),
			RefreshTokenTTL:     v.GetDuration("AUTH_REFRESH_TOKEN_TTL"),
			RotateRefreshTokens: v.GetBool("AUTH_ROTATE_REFRESH_TOKENS"),
			BcryptCost:          v.GetInt("AUTH_BCRYPT_COST"),
			BootstrapAdmin: BootstrapAdmin{
				Username: v.GetString("AUTH_BOOTSTRAP_ADMIN_USERNAME"),
				Email:    v.GetString("AUTH_BOOTSTRAP_ADMIN_EMAIL"),
				Password: v.GetString("AUTH_BOOTSTRAP_ADMIN_PASSWORD"),
			},
		},
		Events: EventsConfig{
			RedisChannel: v.GetString("EVENTS_REDIS_CHANNEL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on an unusable auth surface.
func (c *Config) Validate() error {
	var errs []error

	secret, err := base64.StdEncoding.DecodeString(c.Auth.JWTSecret)
	switch {
	case c.Auth.JWTSecret == "":
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required"))
	case err != nil:
		errs = append(errs, fmt.Errorf("AUTH_JWT_SECRET must be base64: %w", err))
	case len(secret) < 32:
		errs = append(errs, fmt.Errorf("AUTH_JWT_SECRET must decode to at least 32 bytes, got %d", len(secret)))
	}

	if c.Auth.AccessTokenTTL < time.Second {
		errs = append(errs, errors.New("AUTH_ACCESS_TOKEN_TTL must be at least 1s"))
	}
	if c.Auth.RefreshTokenTTL < c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("AUTH_REFRESH_TOKEN_TTL must not be shorter than AUTH_ACCESS_TOKEN_TTL"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("AUTH_BCRYPT_COST must be within 4..31, got %d", c.Auth.BcryptCost))
	}
	if c.Postgres.ConnectAttempts == 0 {
		errs = append(errs, errors.New("POSTGRES_CONNECT_ATTEMPTS must be positive"))
	}
	for _, origin := range c.App.CORSAllowedOrigins {
		if origin == "*" {
			errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS cannot be * because credentials are allowed"))
			break
		}
	}

	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
