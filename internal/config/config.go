// internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Models   ModelsConfig
	Storage  StorageConfig
	Forecast ForecastConfig
	Pipeline PipelineConfig
}

type ServerConfig struct {
	Port           string
	AdminPort      string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type LogConfig struct {
	Format string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	ForecastTTLSeconds int
}

// ModelsConfig locates the trained predictor bundles.
type ModelsConfig struct {
	Dir    string
	Source string // "local" or "s3"
	Prefix string
}

// StorageConfig encapsulates the connection info for S3-compatible storage.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type ForecastConfig struct {
	HistoryDays    int
	DefaultHorizon int
	MaxHorizon     int
	Seed           int64
	Jitter         bool
}

type PipelineConfig struct {
	Workers              int
	RetryAttempts        int
	RefreshIntervalHours int
}

var (
	once     sync.Once
	instance *Config
)

// Load returns the process-wide configuration, reading the environment once.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		instance = New(viper.GetViper())
		ensureDir(instance.Models.Dir)
	})

	return instance
}

// New builds a configuration from v without touching process-wide state.
func New(v *viper.Viper) *Config {
	setDefaults(v)

	// Read from environment variables
	v.AutomaticEnv()

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			AdminPort:      v.GetString("SERVER_ADMIN_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Log: LogConfig{
			Format: v.GetString("LOG_FORMAT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Cache: CacheConfig{
			Enabled:            v.GetBool("CACHE_ENABLED"),
			RedisURL:           v.GetString("REDIS_URL"),
			RedisHost:          v.GetString("REDIS_HOST"),
			RedisPort:          v.GetString("REDIS_PORT"),
			RedisPassword:      v.GetString("REDIS_PASSWORD"),
			RedisDB:            v.GetInt("REDIS_DB"),
			ForecastTTLSeconds: v.GetInt("CACHE_FORECAST_TTL_SECONDS"),
		},
		Models: ModelsConfig{
			Dir:    v.GetString("MODELS_DIR"),
			Source: v.GetString("MODELS_SOURCE"),
			Prefix: v.GetString("MODELS_PREFIX"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
		},
		Forecast: ForecastConfig{
			HistoryDays:    v.GetInt("FORECAST_HISTORY_DAYS"),
			DefaultHorizon: v.GetInt("FORECAST_DEFAULT_HORIZON"),
			MaxHorizon:     v.GetInt("FORECAST_MAX_HORIZON"),
			Seed:           v.GetInt64("FORECAST_SEED"),
			Jitter:         v.GetBool("FORECAST_JITTER"),
		},
		Pipeline: PipelineConfig{
			Workers:              v.GetInt("PIPELINE_WORKERS"),
			RetryAttempts:        v.GetInt("PIPELINE_RETRY_ATTEMPTS"),
			RefreshIntervalHours: v.GetInt("PIPELINE_REFRESH_INTERVAL_HOURS"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ADMIN_PORT", "9090")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "stockrisk")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_FORECAST_TTL_SECONDS", 86400)
	v.SetDefault("MODELS_DIR", "./models")
	v.SetDefault("MODELS_SOURCE", "local")
	v.SetDefault("MODELS_PREFIX", "models/")
	v.SetDefault("STORAGE_ENDPOINT", "")
	v.SetDefault("STORAGE_ACCESS_KEY", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_BUCKET", "")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("FORECAST_HISTORY_DAYS", 60)
	v.SetDefault("FORECAST_DEFAULT_HORIZON", 30)
	v.SetDefault("FORECAST_MAX_HORIZON", 365)
	v.SetDefault("FORECAST_SEED", 0)
	v.SetDefault("FORECAST_JITTER", true)
	v.SetDefault("PIPELINE_WORKERS", 4)
	v.SetDefault("PIPELINE_RETRY_ATTEMPTS", 3)
	v.SetDefault("PIPELINE_REFRESH_INTERVAL_HOURS", 0)
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
