package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Security   SecurityConfig   `yaml:"security" envconfig:"SECURITY"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	DataSource DataSourceConfig `yaml:"data_source" envconfig:"DATA_SOURCE"`
	Forecast   ForecastConfig   `yaml:"forecast" envconfig:"FORECAST"`
	Export     ExportConfig     `yaml:"export" envconfig:"EXPORT"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// DataSourceConfig describes where the raw Superstore rows come from.
// Exactly one of SpreadsheetID or WorkbookPath should be set: the former
// reads a Google Sheets worksheet, the latter a local Excel workbook.
type DataSourceConfig struct {
	SpreadsheetID string        `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	WorkbookPath  string        `yaml:"workbook_path" envconfig:"WORKBOOK_PATH" default:"Superstore.xlsx"`
	SheetName     string        `yaml:"sheet_name" envconfig:"SHEET_NAME" default:"Superstore"`
	APIKey        string        `yaml:"api_key" envconfig:"API_KEY"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT" default:"30s"`
	CacheTTL      time.Duration `yaml:"cache_ttl" envconfig:"CACHE_TTL" default:"10m"`
}

// ForecastConfig configures the external forecaster boundary
type ForecastConfig struct {
	Endpoint       string        `yaml:"endpoint" envconfig:"ENDPOINT"`
	Timeout        time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"60s"`
	DefaultPeriods int           `yaml:"default_periods" envconfig:"DEFAULT_PERIODS" default:"6"`
}

// ExportConfig configures report and table export output
type ExportConfig struct {
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"reports"`
	CSVBOM    bool   `yaml:"csv_bom" envconfig:"CSV_BOM" default:"true"`
}

// Load loads configuration from a config file and environment variables.
// Environment variables take precedence over file values.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := findConfigFile(); configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process("STOREPULSE", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.DataSource.SheetName == "" {
		return fmt.Errorf("data source sheet name is required")
	}

	if c.DataSource.SpreadsheetID != "" && c.DataSource.WorkbookPath != "" {
		// Ambiguous source selection: the spreadsheet wins, matching the
		// deployed dashboard which reads live sheet data.
		c.DataSource.WorkbookPath = ""
	}

	if c.DataSource.CacheTTL <= 0 {
		return fmt.Errorf("data source cache TTL must be positive")
	}

	if c.DataSource.FetchTimeout <= 0 {
		return fmt.Errorf("data source fetch timeout must be positive")
	}

	if c.Forecast.DefaultPeriods < 1 || c.Forecast.DefaultPeriods > 12 {
		return fmt.Errorf("forecast default periods must be between 1 and 12")
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}

// findConfigFile returns the path to the config file, empty when none exists
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/app.log",
		},
		DataSource: DataSourceConfig{
			WorkbookPath: "Superstore.xlsx",
			SheetName:    "Superstore",
			FetchTimeout: 30 * time.Second,
			CacheTTL:     10 * time.Minute,
		},
		Forecast: ForecastConfig{
			Timeout:        60 * time.Second,
			DefaultPeriods: 6,
		},
		Export: ExportConfig{
			OutputDir: "reports",
			CSVBOM:    true,
		},
	}
}
