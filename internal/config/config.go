package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
)

type Config struct {
	Port     string `yaml:"port"`
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`

	Storage    string `yaml:"storage"`
	SQLitePath string `yaml:"sqlite_path"`
	RedisURL   string `yaml:"redis_url"`

	CatalogPath string `yaml:"catalog_path"`

	GeminiAPIKey     string        `yaml:"gemini_api_key"`
	GeminiModel      string        `yaml:"gemini_model"`
	AnalysisTimeout  time.Duration `yaml:"analysis_timeout"`
	AnalysisCacheTTL time.Duration `yaml:"analysis_cache_ttl"`

	NominatimURL string `yaml:"nominatim_url"`

	DeliveryFee      float64 `yaml:"delivery_fee"`
	MaxDeliveryMiles float64 `yaml:"max_delivery_miles"`
	RedemptionCap    float64 `yaml:"redemption_cap"`

	Telemetry bool `yaml:"telemetry"`
}

// Default returns the settings the storefront ships with.
func Default() *Config {
	return &Config{
		Port:             "8080",
		Env:              "development",
		LogLevel:         "info",
		Storage:          StorageMemory,
		SQLitePath:       "./purepick.db",
		RedisURL:         "redis://localhost:6379/0",
		GeminiModel:      "gemini-2.5-flash",
		AnalysisTimeout:  20 * time.Second,
		AnalysisCacheTTL: 24 * time.Hour,
		NominatimURL:     "https://nominatim.openstreetmap.org",
		DeliveryFee:      15,
		MaxDeliveryMiles: 10,
		RedemptionCap:    0.08,
	}
}

// Load reads the optional YAML file at path and then applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Env = getEnv("ENV", cfg.Env)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.Storage = getEnv("STORAGE", cfg.Storage)
	cfg.SQLitePath = getEnv("DB_PATH", cfg.SQLitePath)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.CatalogPath = getEnv("CATALOG_PATH", cfg.CatalogPath)
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = getEnv("GEMINI_MODEL", cfg.GeminiModel)
	cfg.NominatimURL = getEnv("NOMINATIM_URL", cfg.NominatimURL)

	var err error
	if cfg.AnalysisTimeout, err = getDuration("ANALYSIS_TIMEOUT", cfg.AnalysisTimeout); err != nil {
		return nil, err
	}
	if cfg.AnalysisCacheTTL, err = getDuration("ANALYSIS_CACHE_TTL", cfg.AnalysisCacheTTL); err != nil {
		return nil, err
	}
	if cfg.DeliveryFee, err = getFloat("DELIVERY_FEE", cfg.DeliveryFee); err != nil {
		return nil, err
	}
	if cfg.MaxDeliveryMiles, err = getFloat("MAX_DELIVERY_MILES", cfg.MaxDeliveryMiles); err != nil {
		return nil, err
	}
	if cfg.RedemptionCap, err = getFloat("REDEMPTION_CAP", cfg.RedemptionCap); err != nil {
		return nil, err
	}
	cfg.Telemetry = getEnv("TELEMETRY", strconv.FormatBool(cfg.Telemetry)) == "true"

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	switch c.Storage {
	case StorageMemory, StorageSQLite, StorageRedis:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage)
	}
	if c.DeliveryFee < 0 {
		return fmt.Errorf("delivery fee must not be negative")
	}
	if c.MaxDeliveryMiles <= 0 {
		return fmt.Errorf("max delivery miles must be positive")
	}
	if c.RedemptionCap < 0 || c.RedemptionCap > 1 {
		return fmt.Errorf("redemption cap must be within [0, 1]")
	}
	if c.AnalysisTimeout <= 0 {
		return fmt.Errorf("analysis timeout must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) (float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
