package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // zone database for app.timezone on minimal images

	"seminar/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App         AppConfig         `yaml:"app"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Backup      BackupConfig      `yaml:"backup"`
	Monitoring  MonitoringConfig  `yaml:"monitoring"`
	Logging     LoggingConfig     `yaml:"logging"`
	API         APIConfig         `yaml:"api"`
	Admin       AdminConfig       `yaml:"admin"`
	Reservation ReservationConfig `yaml:"reservation"`
	Storage     StorageConfig     `yaml:"storage"`
	AccessLog   AccessLogConfig   `yaml:"access_log"`
	Seed        SeedConfig        `yaml:"seed"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	Timezone    string `yaml:"timezone"`
}

type DatabaseConfig struct {
	Path         string        `yaml:"path"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	BusyTimeout  time.Duration `yaml:"busy_timeout"`
}

type RedisConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"pool_size"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	HTTP           APIHTTPConfig      `yaml:"http"`
	RateLimit      APIRateLimitConfig `yaml:"rate_limit"`
	MaxUploadBytes int64              `yaml:"max_upload_bytes"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type AdminConfig struct {
	Password string `yaml:"password"`
	Header   string `yaml:"header"`
}

type ReservationConfig struct {
	MaxDaysAhead int           `yaml:"max_days_ahead"`
	PastGrace    time.Duration `yaml:"past_grace"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
}

type StorageConfig struct {
	Provider              string           `yaml:"provider"` // cloudinary | memory
	ReplaceImagesOnUpdate bool             `yaml:"replace_images_on_update"`
	PublicBaseURL         string           `yaml:"public_base_url"`
	Cloudinary            CloudinaryConfig `yaml:"cloudinary"`
}

type CloudinaryConfig struct {
	CloudName string `yaml:"cloud_name"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
}

type AccessLogConfig struct {
	Path string `yaml:"path"`
}

type SeedConfig struct {
	RoomsPath string `yaml:"rooms_path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if strings.TrimSpace(c.Admin.Password) == "" {
		return errors.New("admin password is required")
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid app timezone %q: %w", c.App.Timezone, err)
	}

	switch c.Storage.Provider {
	case "memory":
	case "cloudinary":
		cld := c.Storage.Cloudinary
		if cld.CloudName == "" || cld.APIKey == "" || cld.APISecret == "" {
			return errors.New("cloudinary storage requires cloud_name, api_key and api_secret")
		}
	default:
		return fmt.Errorf("unknown storage provider %q", c.Storage.Provider)
	}

	if c.Reservation.MaxDaysAhead < 0 || c.Reservation.MaxRetries < 0 {
		return errors.New("reservation limits must not be negative")
	}

	return nil
}

// Location returns the time zone reservations are interpreted in.
func (c *Config) Location() (*time.Location, error) {
	if c.App.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.App.Timezone)
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "seminar"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.MaxUploadBytes <= 0 {
		c.API.MaxUploadBytes = models.DefaultMaxUploadBytes
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Database.QueryTimeout <= 0 {
		c.Database.QueryTimeout = models.DefaultQueryTimeout
	}
	if c.Database.BusyTimeout <= 0 {
		c.Database.BusyTimeout = models.DefaultQueryTimeout
	}
	if c.Redis.CacheTTL <= 0 {
		c.Redis.CacheTTL = models.RoomCacheTTL
	}
	if c.Admin.Header == "" {
		c.Admin.Header = "X-Admin-Password"
	}

	if c.Reservation.MaxDaysAhead == 0 {
		c.Reservation.MaxDaysAhead = int(models.ReservationHorizon / (24 * time.Hour))
	}
	if c.Reservation.PastGrace <= 0 {
		c.Reservation.PastGrace = models.ReservationPastGrace
	}
	if c.Reservation.MaxRetries == 0 {
		c.Reservation.MaxRetries = models.DefaultCreateRetries
	}
	if c.Reservation.RetryDelay <= 0 {
		c.Reservation.RetryDelay = 50 * time.Millisecond
	}

	if c.Storage.Provider == "" {
		c.Storage.Provider = "memory"
	}
	if c.AccessLog.Path == "" {
		c.AccessLog.Path = "logs/access.log"
	}
}
