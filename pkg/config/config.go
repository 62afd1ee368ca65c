package config

import (
	"errors"
	"io/fs"
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

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Timetable TimetableConfig
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
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// TimetableConfig tunes rendering, caching and invalidation.
type TimetableConfig struct {
	CacheEnabled        bool
	CacheTTL            time.Duration
	HideNonCurrent      bool
	GridFile            string
	InvalidationWorkers int
	InvalidationRetries int
	InvalidationDelay   time.Duration
	ExportSheetName     string
	ExportDir           string
	ExportSecret        string
	ExportLinkTTL       time.Duration
	ExportRetention     time.Duration
	ExportPurgeSchedule string
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
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Timetable = TimetableConfig{
		CacheEnabled:        v.GetBool("TIMETABLE_CACHE_ENABLED"),
		CacheTTL:            parseDuration(v.GetString("TIMETABLE_CACHE_TTL"), 10*time.Minute),
		HideNonCurrent:      v.GetBool("TIMETABLE_HIDE_NON_CURRENT"),
		GridFile:            v.GetString("TIMETABLE_GRID_FILE"),
		InvalidationWorkers: v.GetInt("TIMETABLE_INVALIDATION_WORKERS"),
		InvalidationRetries: v.GetInt("TIMETABLE_INVALIDATION_RETRIES"),
		InvalidationDelay:   parseDuration(v.GetString("TIMETABLE_INVALIDATION_DELAY"), time.Second),
		ExportSheetName:     v.GetString("TIMETABLE_EXPORT_SHEET"),
		ExportDir:           v.GetString("TIMETABLE_EXPORT_DIR"),
		ExportSecret:        v.GetString("TIMETABLE_EXPORT_SECRET"),
		ExportLinkTTL:       parseDuration(v.GetString("TIMETABLE_EXPORT_LINK_TTL"), 24*time.Hour),
		ExportRetention:     parseDuration(v.GetString("TIMETABLE_EXPORT_RETENTION"), 72*time.Hour),
		ExportPurgeSchedule: v.GetString("TIMETABLE_EXPORT_PURGE_SCHEDULE"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("TIMETABLE_CACHE_ENABLED", true)
	v.SetDefault("TIMETABLE_CACHE_TTL", "10m")
	v.SetDefault("TIMETABLE_HIDE_NON_CURRENT", false)
	v.SetDefault("TIMETABLE_GRID_FILE", "")
	v.SetDefault("TIMETABLE_INVALIDATION_WORKERS", 1)
	v.SetDefault("TIMETABLE_INVALIDATION_RETRIES", 5)
	v.SetDefault("TIMETABLE_INVALIDATION_DELAY", "1s")
	v.SetDefault("TIMETABLE_EXPORT_SHEET", "Timetable")
	v.SetDefault("TIMETABLE_EXPORT_DIR", "./exports")
	v.SetDefault("TIMETABLE_EXPORT_SECRET", "")
	v.SetDefault("TIMETABLE_EXPORT_LINK_TTL", "24h")
	v.SetDefault("TIMETABLE_EXPORT_RETENTION", "72h")
	v.SetDefault("TIMETABLE_EXPORT_PURGE_SCHEDULE", "@every 1h")
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
