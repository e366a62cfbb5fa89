package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Admin    AdminConfig
	Export   ExportConfig
	CORS     CORSConfig
	Log      LogConfig
	Tracing  TracingConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig selects the cache backend and TTLs for derived read models.
type CacheConfig struct {
	Driver          string
	ProgramTTL      time.Duration
	BasketCreditTTL time.Duration
	DashboardTTL    time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// CookieConfig controls the HTTP-only token cookie set on login.
type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
}

// AdminConfig holds admin account policy and the bootstrap passcode.
type AdminConfig struct {
	BootstrapPasscode string
	MaxFailedLogins   int
	LockoutDuration   time.Duration
}

// ExportConfig controls signed credit statement download links. An empty
// secret falls back to the JWT secret.
type ExportConfig struct {
	LinkSecret string
	LinkTTL    time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// TracingConfig toggles OpenTelemetry tracing.
type TracingConfig struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
	Insecure     bool
	SampleRatio  float64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Driver:          strings.ToLower(v.GetString("CACHE_DRIVER")),
		ProgramTTL:      parseDuration(v.GetString("PROGRAM_CACHE_TTL"), 5*time.Minute),
		BasketCreditTTL: parseDuration(v.GetString("BASKET_CREDIT_CACHE_TTL"), 5*time.Minute),
		DashboardTTL:    parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.Cookie = CookieConfig{
		Name:   v.GetString("AUTH_COOKIE_NAME"),
		Domain: v.GetString("AUTH_COOKIE_DOMAIN"),
		Secure: v.GetBool("AUTH_COOKIE_SECURE"),
	}

	cfg.Admin = AdminConfig{
		BootstrapPasscode: v.GetString("ADMIN_BOOTSTRAP_PASSCODE"),
		MaxFailedLogins:   v.GetInt("ADMIN_MAX_FAILED_LOGINS"),
		LockoutDuration:   parseDuration(v.GetString("ADMIN_LOCKOUT_DURATION"), 30*time.Minute),
	}

	cfg.Export = ExportConfig{
		LinkSecret: v.GetString("EXPORT_LINK_SECRET"),
		LinkTTL:    parseDuration(v.GetString("EXPORT_LINK_TTL"), 15*time.Minute),
	}
	if cfg.Export.LinkSecret == "" {
		cfg.Export.LinkSecret = cfg.JWT.Secret
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Tracing = TracingConfig{
		Enabled:      v.GetBool("OTEL_ENABLED"),
		ServiceName:  v.GetString("OTEL_SERVICE_NAME"),
		OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Insecure:     v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
		SampleRatio:  clampRatio(v.GetFloat64("OTEL_SAMPLER_RATIO")),
	}

	return cfg
}

// Validate reports missing settings the process cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.JWT.Secret) == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.Database.Host == "" {
		missing = append(missing, "DB_HOST")
	}
	if c.Database.User == "" {
		missing = append(missing, "DB_USER")
	}
	if c.Database.Name == "" {
		missing = append(missing, "DB_NAME")
	}
	if c.Cache.Driver == CacheDriverRedis && c.Redis.Host == "" {
		missing = append(missing, "REDIS_HOST")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.Cache.Driver != CacheDriverMemory && c.Cache.Driver != CacheDriverRedis {
		return fmt.Errorf("unsupported CACHE_DRIVER %q", c.Cache.Driver)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "credit_tracker")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("CACHE_DRIVER", CacheDriverMemory)
	v.SetDefault("PROGRAM_CACHE_TTL", "5m")
	v.SetDefault("BASKET_CREDIT_CACHE_TTL", "5m")
	v.SetDefault("DASHBOARD_CACHE_TTL", "1m")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "credit-tracker-api")

	v.SetDefault("AUTH_COOKIE_NAME", "access_token")
	v.SetDefault("AUTH_COOKIE_DOMAIN", "")
	v.SetDefault("AUTH_COOKIE_SECURE", false)

	v.SetDefault("ADMIN_BOOTSTRAP_PASSCODE", "")
	v.SetDefault("ADMIN_MAX_FAILED_LOGINS", 5)
	v.SetDefault("ADMIN_LOCKOUT_DURATION", "30m")

	v.SetDefault("EXPORT_LINK_SECRET", "")
	v.SetDefault("EXPORT_LINK_TTL", "15m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "credit-tracker-api")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SAMPLER_RATIO", 0.1)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func clampRatio(ratio float64) float64 {
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
