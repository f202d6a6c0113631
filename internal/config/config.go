package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ignite/connect-metrics/internal/metrics"
	"github.com/ignite/connect-metrics/internal/pkg/clock"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Cache    CacheConfig    `yaml:"cache"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	Metrics  metrics.Config `yaml:"metrics"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Log      LogConfig      `yaml:"log"`
	Timezone string         `yaml:"timezone"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port                   int      `yaml:"port"`
	Host                   string   `yaml:"host"`
	CORSOrigins            []string `yaml:"cors_origins"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds"`
	MaxUploadMB            int      `yaml:"max_upload_mb"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr is the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// StorageConfig selects where the source CSV folders live. Type is "aws"
// (S3) or "local" (a directory tree with one folder per source).
type StorageConfig struct {
	Type      string `yaml:"type"`
	LocalPath string `yaml:"local_path"`
	S3Bucket  string `yaml:"s3_bucket"`
	S3Prefix  string `yaml:"s3_prefix"`
	AWSRegion string `yaml:"aws_region"`
	// Empty string uses default credential chain (IAM role on ECS)
	AWSProfile string `yaml:"aws_profile"`
	// S3Endpoint points the client at an S3-compatible service.
	S3Endpoint      string `yaml:"s3_endpoint"`
	S3UsePathStyle  bool   `yaml:"s3_use_path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	// LocalFallback consults LocalPath when a bucket folder has no CSVs.
	LocalFallback bool `yaml:"local_fallback"`
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return "" // Use default credential chain (IAM role)
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// CacheConfig selects the computed-metrics cache. Backend is "redis",
// "postgres", "dynamodb" or "memory".
type CacheConfig struct {
	Backend        string `yaml:"backend"`
	TTLMinutes     int    `yaml:"ttl_minutes"`
	DynamoDBTable  string `yaml:"dynamodb_table"`
	LockTTLSeconds int    `yaml:"lock_ttl_seconds"`
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

func (c CacheConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// RedisConfig holds the Redis connection URL (redis://...).
type RedisConfig struct {
	URL string `yaml:"url"`
}

// DatabaseConfig holds the PostgreSQL connection URL.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// ScheduleConfig controls the background cache warm-up job.
type ScheduleConfig struct {
	Enabled    bool     `yaml:"enabled"`
	WarmupCron string   `yaml:"warmup_cron"`
	Filters    []string `yaml:"filters"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level            string `yaml:"level"`
	DisableRedaction bool   `yaml:"disable_redaction"`
}

// Location resolves the canonical reporting timezone.
func (c *Config) Location() (*time.Location, error) {
	return clock.LoadLocation(c.Timezone)
}

// Load reads and parses the configuration file. An empty path, or a path
// that does not exist, yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Server.ShutdownTimeoutSeconds == 0 {
		cfg.Server.ShutdownTimeoutSeconds = 30
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 50
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.LocalPath == "" {
		cfg.Storage.LocalPath = "./data"
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "us-west-2"
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.TTLMinutes == 0 {
		cfg.Cache.TTLMinutes = 30
	}
	if cfg.Cache.DynamoDBTable == "" {
		cfg.Cache.DynamoDBTable = "connect-metrics-cache"
	}
	if cfg.Cache.LockTTLSeconds == 0 {
		cfg.Cache.LockTTLSeconds = 120
	}
	if cfg.Schedule.WarmupCron == "" {
		cfg.Schedule.WarmupCron = "*/30 * * * *"
	}
	if len(cfg.Schedule.Filters) == 0 {
		cfg.Schedule.Filters = []string{"all"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = clock.DefaultTimezone
	}
	cfg.Metrics = cfg.Metrics.WithDefaults()
}

// LoadFromEnv loads configuration from file and environment variables
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.Server.CORSOrigins = splitList(origins)
	}
	if t := os.Getenv("STORAGE_TYPE"); t != "" {
		cfg.Storage.Type = t
	}
	if p := os.Getenv("LOCAL_DATA_PATH"); p != "" {
		cfg.Storage.LocalPath = p
	}
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		cfg.Storage.S3Bucket = bucket
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		cfg.Storage.AWSRegion = region
	}
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		cfg.Storage.S3Endpoint = endpoint
	}
	if key := os.Getenv("AWS_ACCESS_KEY_ID"); key != "" {
		cfg.Storage.AccessKeyID = key
	}
	if secret := os.Getenv("AWS_SECRET_ACCESS_KEY"); secret != "" {
		cfg.Storage.SecretAccessKey = secret
	}
	if v := os.Getenv("FORCE_LOCAL"); v == "true" {
		cfg.Storage.Type = "local"
	}
	if backend := os.Getenv("CACHE_BACKEND"); backend != "" {
		cfg.Cache.Backend = backend
	}
	if ttl := os.Getenv("CACHE_TTL_MINUTES"); ttl != "" {
		if m, err := strconv.Atoi(ttl); err == nil && m > 0 {
			cfg.Cache.TTLMinutes = m
		}
	}
	if table := os.Getenv("CACHE_DYNAMODB_TABLE"); table != "" {
		cfg.Cache.DynamoDBTable = table
	}
	if url := os.Getenv("REDIS_URL"); url != "" {
		cfg.Redis.URL = url
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if spec := os.Getenv("WARMUP_CRON"); spec != "" {
		cfg.Schedule.WarmupCron = spec
		cfg.Schedule.Enabled = true
	}
	if v := os.Getenv("WARMUP_ENABLED"); v != "" {
		cfg.Schedule.Enabled = v == "true"
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if tz := os.Getenv("APP_TIMEZONE"); tz != "" {
		cfg.Timezone = tz
	}
	if pilot := os.Getenv("PILOT_LIST_NAME"); pilot != "" {
		cfg.Metrics.PilotListName = pilot
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
