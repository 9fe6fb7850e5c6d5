package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/agendafacil/booking-api/internal/email"
	"github.com/agendafacil/booking-api/internal/repository/postgres"
	"github.com/agendafacil/booking-api/pkg/auth"
	"github.com/agendafacil/booking-api/pkg/messaging/redis"
)

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// AdminSeedConfig describes the administrator account ensured at
// startup so a fresh deployment is manageable without manual SQL.
type AdminSeedConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	BcryptCost     int      `mapstructure:"bcrypt_cost"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  postgres.Config `mapstructure:"database"`
	JWT       auth.Config     `mapstructure:"jwt"`
	Redis     redis.Config    `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Security  SecurityConfig  `mapstructure:"security"`
	Admin     AdminSeedConfig `mapstructure:"admin"`
	SMTP      email.Config    `mapstructure:"smtp"`
	Metrics   struct {
		Namespace string `mapstructure:"namespace"`
	} `mapstructure:"metrics"`
}

// overrides collects the secrets that may arrive via environment
// instead of the config file.
type overrides struct {
	DatabasePassword string `envconfig:"DATABASE_PASSWORD"`
	JWTSecret        string `envconfig:"JWT_SECRET"`
	JWTRefreshSecret string `envconfig:"JWT_REFRESH_SECRET"`
	RedisURL         string `envconfig:"REDIS_URL"`
	AdminEmail       string `envconfig:"ADMIN_EMAIL"`
	AdminPassword    string `envconfig:"ADMIN_PASSWORD"`
	SMTPPassword     string `envconfig:"SMTP_PASSWORD"`
}

// LoadConfig reads config.yml and applies environment overrides on
// top, so secrets never have to live in the file.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/app")
	viper.AddConfigPath("/app/config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var env overrides
	if err := envconfig.Process("booking", &env); err != nil {
		return nil, fmt.Errorf("failed to read environment overrides: %w", err)
	}
	applyOverrides(&cfg, env)

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyOverrides(cfg *Config, env overrides) {
	if env.DatabasePassword != "" {
		cfg.Database.Password = env.DatabasePassword
	}
	if env.JWTSecret != "" {
		cfg.JWT.Secret = env.JWTSecret
	}
	if env.JWTRefreshSecret != "" {
		cfg.JWT.RefreshSecret = env.JWTRefreshSecret
	}
	if env.RedisURL != "" {
		cfg.Redis.URL = env.RedisURL
	}
	if env.AdminEmail != "" {
		cfg.Admin.Email = env.AdminEmail
	}
	if env.AdminPassword != "" {
		cfg.Admin.Password = env.AdminPassword
	}
	if env.SMTPPassword != "" {
		cfg.SMTP.Password = env.SMTPPassword
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "booking_api"
	}
}
