package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application level configuration loaded from a config file,
// a .env file and environment variables.
type Config struct {
	ServerPort        string
	DBDriver          string
	DBDSN             string
	DBLog             bool
	DBMaxOpenConns    int
	RedisAddr         string
	RedisDB           int
	RedisPass         string
	JWTSecret         string
	JWTIssuer         string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	CORSOrigins       []string
	LogLevel          string
	ReconcileSchedule string
	ResetDB           bool
	SwaggerHost       string
	AdminEmail        string
	AdminPassword     string
}

// Load builds Config with sensible defaults. Environment variables win over
// config.yaml, which wins over the defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file, continuing with system environment variables")
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		ServerPort:        v.GetString("SERVER_PORT"),
		DBDriver:          v.GetString("DB_DRIVER"),
		DBDSN:             v.GetString("DB_DSN"),
		DBLog:             v.GetBool("DB_LOG"),
		DBMaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		RedisDB:           v.GetInt("REDIS_DB"),
		RedisPass:         v.GetString("REDIS_PASSWORD"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		JWTIssuer:         v.GetString("JWT_ISSUER"),
		AccessTokenTTL:    v.GetDuration("JWT_ACCESS_TTL"),
		RefreshTokenTTL:   v.GetDuration("JWT_REFRESH_TTL"),
		CORSOrigins:       splitList(v.GetString("CORS_ORIGINS")),
		LogLevel:          v.GetString("LOG_LEVEL"),
		ReconcileSchedule: v.GetString("RECONCILE_SCHEDULE"),
		ResetDB:           v.GetBool("RESET_DB"),
		SwaggerHost:       v.GetString("SWAGGER_HOST"),
		AdminEmail:        v.GetString("ADMIN_EMAIL"),
		AdminPassword:     v.GetString("ADMIN_PASSWORD"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("no JWT_SECRET provided")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_DSN", "user:password@tcp(localhost:3306)/socioai?charset=utf8mb4&parseTime=True&loc=UTC")
	v.SetDefault("DB_LOG", false)
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("JWT_ISSUER", "socioai")
	v.SetDefault("JWT_ACCESS_TTL", "30m")
	v.SetDefault("JWT_REFRESH_TTL", "168h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:4200")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RECONCILE_SCHEDULE", "@every 1h")
	v.SetDefault("RESET_DB", false)
	v.SetDefault("SWAGGER_HOST", "")
	v.SetDefault("ADMIN_EMAIL", "admin@socioai.local")
	v.SetDefault("ADMIN_PASSWORD", "")
}

// SlogLevel converts LogLevel into a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
