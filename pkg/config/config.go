// Package config loads runtime configuration from the environment, with a
// .env file picked up in development.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Bootstrap  BootstrapConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Upstream   UpstreamConfig
	Snapshot   SnapshotConfig
	Persons    PersonsConfig
	Attendance AttendanceConfig
	Jobs       JobsConfig
	Exports    ExportsConfig
}

// BootstrapConfig names the first admin login seeded into an empty user
// table. An empty password disables seeding.
type BootstrapConfig struct {
	AdminUsername string
	AdminPassword string
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
	Enabled  bool
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// UpstreamConfig holds credentials and scope for the camp-management API.
type UpstreamConfig struct {
	BaseURL         string
	APIKey          string
	SubscriptionKey string
	SeasonID        int
	SeasonYear      int
	ClientID        int
	RequestTimeout  time.Duration
	PageSize        int
}

// SnapshotConfig tunes the enrollment snapshot cache.
type SnapshotConfig struct {
	TTL          time.Duration
	StuckTimeout time.Duration
	DiskPath     string
}

// PersonsConfig tunes the person-detail cache.
type PersonsConfig struct {
	DiskPath     string
	BACSyncTTL   time.Duration
	StuckTimeout time.Duration
}

// AttendanceConfig carries the daily edit-lock cutoff.
type AttendanceConfig struct {
	LockHour int
}

// JobsConfig sizes the background worker queue.
type JobsConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// ExportsConfig controls report file generation.
type ExportsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

// Load reads configuration from the environment. Every key has a default,
// so a bare process comes up in development mode against localhost
// services.
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return &Config{
		Env:       v.GetString("ENV"),
		Port:      v.GetInt("PORT"),
		APIPrefix: v.GetString("API_PREFIX"),

		Bootstrap: BootstrapConfig{
			AdminUsername: v.GetString("BOOTSTRAP_ADMIN_USERNAME"),
			AdminPassword: v.GetString("BOOTSTRAP_ADMIN_PASSWORD"),
		},
		Database: DatabaseConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetInt("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Name:         v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSL_MODE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			Enabled:  v.GetBool("REDIS_ENABLED"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("JWT_SECRET"),
			Expiration: durationOr(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		},
		CORS: CORSConfig{AllowedOrigins: splitCSV(v.GetString("ALLOWED_ORIGINS"))},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Upstream: UpstreamConfig{
			BaseURL:         v.GetString("CAMP_API_BASE_URL"),
			APIKey:          v.GetString("CAMP_API_KEY"),
			SubscriptionKey: v.GetString("CAMP_API_SUBSCRIPTION_KEY"),
			SeasonID:        v.GetInt("CAMP_SEASON_ID"),
			SeasonYear:      v.GetInt("CAMP_SEASON_YEAR"),
			ClientID:        v.GetInt("CAMP_CLIENT_ID"),
			RequestTimeout:  durationOr(v.GetString("CAMP_API_TIMEOUT"), 30*time.Second),
			PageSize:        v.GetInt("CAMP_API_PAGE_SIZE"),
		},
		Snapshot: SnapshotConfig{
			TTL:          durationOr(v.GetString("SNAPSHOT_CACHE_TTL"), 15*time.Minute),
			StuckTimeout: durationOr(v.GetString("SNAPSHOT_STUCK_TIMEOUT"), 3*time.Minute),
			DiskPath:     v.GetString("SNAPSHOT_CACHE_PATH"),
		},
		Persons: PersonsConfig{
			DiskPath:     v.GetString("PERSONS_CACHE_PATH"),
			BACSyncTTL:   durationOr(v.GetString("BAC_SYNC_TTL"), time.Hour),
			StuckTimeout: durationOr(v.GetString("BAC_SYNC_STUCK_TIMEOUT"), 3*time.Minute),
		},
		Attendance: AttendanceConfig{
			LockHour: v.GetInt("ATTENDANCE_LOCK_HOUR"),
		},
		Jobs: JobsConfig{
			Workers:    v.GetInt("JOBS_WORKERS"),
			BufferSize: v.GetInt("JOBS_BUFFER_SIZE"),
			MaxRetries: v.GetInt("JOBS_MAX_RETRIES"),
			RetryDelay: durationOr(v.GetString("JOBS_RETRY_DELAY"), 30*time.Second),
		},
		Exports: ExportsConfig{
			StorageDir:      v.GetString("EXPORTS_STORAGE_DIR"),
			SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
			SignedURLTTL:    durationOr(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		},
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("BOOTSTRAP_ADMIN_USERNAME", "admin")
	v.SetDefault("BOOTSTRAP_ADMIN_PASSWORD", "change-me")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "camp_dashboard")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_ENABLED", false)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CAMP_API_BASE_URL", "https://api.campmanagement.example")
	v.SetDefault("CAMP_API_KEY", "")
	v.SetDefault("CAMP_API_SUBSCRIPTION_KEY", "")
	v.SetDefault("CAMP_SEASON_ID", 0)
	v.SetDefault("CAMP_SEASON_YEAR", 2026)
	v.SetDefault("CAMP_CLIENT_ID", 0)
	v.SetDefault("CAMP_API_TIMEOUT", "30s")
	v.SetDefault("CAMP_API_PAGE_SIZE", 1000)

	v.SetDefault("SNAPSHOT_CACHE_TTL", "15m")
	v.SetDefault("SNAPSHOT_STUCK_TIMEOUT", "3m")
	v.SetDefault("SNAPSHOT_CACHE_PATH", "./data/enrollment_snapshot.json")

	v.SetDefault("PERSONS_CACHE_PATH", "./data/persons_cache.json")
	v.SetDefault("BAC_SYNC_TTL", "1h")
	v.SetDefault("BAC_SYNC_STUCK_TIMEOUT", "3m")

	v.SetDefault("ATTENDANCE_LOCK_HOUR", 17)

	v.SetDefault("JOBS_WORKERS", 2)
	v.SetDefault("JOBS_BUFFER_SIZE", 32)
	v.SetDefault("JOBS_MAX_RETRIES", 2)
	v.SetDefault("JOBS_RETRY_DELAY", "30s")

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
}

func durationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
