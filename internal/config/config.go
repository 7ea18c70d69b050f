package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreDatabase = "database"
	StoreRemote   = "remote"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultImagePlaceholder = "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/9/188/321"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// BackendConfig points at an external field backend when STORE_BACKEND=remote.
type BackendConfig struct {
	URL     string
	Timeout time.Duration
}

type CaptureConfig struct {
	SessionTTL time.Duration
	SweepSpec  string
}

type Config struct {
	Environment      string
	LogLevel         string
	HTTP             HTTPConfig
	Store            string
	DB               DBConfig
	Backend          BackendConfig
	CacheTTL         time.Duration
	Capture          CaptureConfig
	ImagePlaceholder string
	ReportFontPath   string
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")

	v.AutomaticEnv()

	v.SetDefault("CACHE_TTL", 30*time.Second)
	v.SetDefault("CAPTURE_SESSION_TTL", 30*time.Minute)
	v.SetDefault("BACKEND_TIMEOUT", 15*time.Second)

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		Store: v.GetString("STORE_BACKEND"),
		DB: DBConfig{
			Driver:          v.GetString("DB_DRIVER"),
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Backend: BackendConfig{
			URL:     v.GetString("BACKEND_URL"),
			Timeout: v.GetDuration("BACKEND_TIMEOUT"),
		},
		CacheTTL: v.GetDuration("CACHE_TTL"),
		Capture: CaptureConfig{
			SessionTTL: v.GetDuration("CAPTURE_SESSION_TTL"),
			SweepSpec:  v.GetString("CAPTURE_SWEEP_SPEC"),
		},
		ImagePlaceholder: v.GetString("FIELD_IMAGE_PLACEHOLDER"),
		ReportFontPath:   v.GetString("REPORT_FONT_PATH"),
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Store == "" {
		cfg.Store = StoreDatabase
	}
	if cfg.DB.Driver == "" {
		cfg.DB.Driver = DriverPostgres
	}
	if cfg.Capture.SweepSpec == "" {
		cfg.Capture.SweepSpec = "@every 1m"
	}
	if cfg.ImagePlaceholder == "" {
		cfg.ImagePlaceholder = defaultImagePlaceholder
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Store {
	case StoreDatabase:
		if cfg.DB.Driver != DriverPostgres && cfg.DB.Driver != DriverSQLite {
			return fmt.Errorf("DB_DRIVER must be %q or %q", DriverPostgres, DriverSQLite)
		}
		if cfg.DB.DSN == "" {
			return fmt.Errorf("DB_DSN is required")
		}
	case StoreRemote:
		if cfg.Backend.URL == "" {
			return fmt.Errorf("BACKEND_URL is required when STORE_BACKEND=%s", StoreRemote)
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q", StoreDatabase, StoreRemote)
	}
	if cfg.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative")
	}
	return nil
}
