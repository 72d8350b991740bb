package config

import (
	"fmt"
	"time"
)

type Config struct {
	Browser             BrowserConfig       `yaml:"browser"`
	HTTP                HttpConfig          `yaml:"http"`
	RateLimit           RateLimitConfig     `yaml:"rate_limit"`
	RobotsCacheTTLHours int                 `yaml:"robots_cache_ttl_hours"`
	SitesFile           string              `yaml:"sites_file"`
	Normalize           NormalizeConfig     `yaml:"normalize"`
	Output              OutputConfig        `yaml:"output"`
	Storage             StorageConfig       `yaml:"storage"`
	Observability       ObservabilityConfig `yaml:"observability"`

	// путь к самому файлу конфига, нужен для относительных путей
	path string
}

type BrowserConfig struct {
	Engine             string `yaml:"engine"`
	ChromePath         string `yaml:"chrome_path"`
	Headless           bool   `yaml:"headless"`
	NoSandbox          bool   `yaml:"no_sandbox"`
	NavigationTimeoutS int    `yaml:"navigation_timeout_s"`
	RenderTimeoutS     int    `yaml:"render_timeout_s"`
	SettleDelayMS      int    `yaml:"settle_delay_ms"`
	PollIntervalMS     int    `yaml:"poll_interval_ms"`
}

type HttpConfig struct {
	UserAgent                 string `yaml:"user_agent"`
	RequestTimeoutMS          int    `yaml:"request_timeout_ms"`
	MaxIdleConnections        int    `yaml:"max_idle_connections"`
	MaxIdleConnectionsPerHost int    `yaml:"max_idle_connections_per_host"`
	IdleConnectionTimeoutS    int    `yaml:"idle_connection_timeout_s"`
	AcceptLanguage            string `yaml:"accept_language"`
	RespectRobots             bool   `yaml:"respect_robots"`
}

type RateLimitConfig struct {
	RPM   int `yaml:"rpm"`
	Burst int `yaml:"burst"`
}

type NormalizeConfig struct {
	TrimNBSP        bool `yaml:"trim_nbsp"`
	CollapseSpaces  bool `yaml:"collapse_spaces"`
	MaxPreviewChars int  `yaml:"max_preview_chars"`
}

const (
	SinkCSV      = "csv"
	SinkDatabase = "database"
)

type OutputConfig struct {
	Sink string `yaml:"sink"`
	Dir  string `yaml:"dir"`
	BOM  bool   `yaml:"bom"`
}

type StorageConfig struct {
	Driver           string `yaml:"driver"`
	DSN              string `yaml:"dsn"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms"`
	Table            string `yaml:"table"`
}

type ObservabilityConfig struct {
	LogPath       string `yaml:"log_path"`
	LogLevel      string `yaml:"log_level"`
	MetricsPath   string `yaml:"metrics_path"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`
}

// Validation
func (c *Config) Validate() error {
	switch c.Browser.Engine {
	case "", "rod", "chromedp":
	default:
		return fmt.Errorf("browser.engine must be 'rod' or 'chromedp'")
	}
	if c.Browser.NavigationTimeoutS <= 0 {
		return fmt.Errorf("browser.navigation_timeout_s must be > 0")
	}
	if c.Browser.RenderTimeoutS <= 0 {
		return fmt.Errorf("browser.render_timeout_s must be > 0")
	}
	if c.Browser.SettleDelayMS < 0 {
		return fmt.Errorf("browser.settle_delay_ms must be >= 0")
	}
	if c.Browser.PollIntervalMS < 0 {
		return fmt.Errorf("browser.poll_interval_ms must be >= 0")
	}
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent is required")
	}
	if c.HTTP.RequestTimeoutMS <= 0 {
		return fmt.Errorf("http.request_timeout_ms must be > 0")
	}
	if c.RateLimit.RPM <= 0 {
		return fmt.Errorf("rate_limit.rpm must be > 0")
	}
	if c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit.burst must be >= 0")
	}
	if c.HTTP.RespectRobots && c.RobotsCacheTTLHours <= 0 {
		return fmt.Errorf("robots_cache_ttl_hours must be > 0 when http.respect_robots is true")
	}
	if c.SitesFile == "" {
		return fmt.Errorf("sites_file is required")
	}
	switch c.Output.Sink {
	case SinkCSV:
		if c.Output.Dir == "" {
			return fmt.Errorf("output.dir is required for the csv sink")
		}
	case SinkDatabase:
		if c.Storage.Driver != "mssql" && c.Storage.Driver != "postgres" {
			return fmt.Errorf("storage.driver must be 'mssql' or 'postgres'")
		}
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required")
		}
		if c.Storage.CommandTimeoutMS <= 0 {
			return fmt.Errorf("storage.command_timeout_ms must be > 0")
		}
	default:
		return fmt.Errorf("output.sink must be 'csv' or 'database'")
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("observability.log_level is required")
	}
	return nil
}

// Getters
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.HTTP.RequestTimeoutMS) * time.Millisecond
}

func (c *Config) GetIdleConnectionTimeout() time.Duration {
	if c.HTTP.IdleConnectionTimeoutS <= 0 {
		return 90 * time.Second
	}
	return time.Duration(c.HTTP.IdleConnectionTimeoutS) * time.Second
}

func (c *Config) GetNavigationTimeout() time.Duration {
	return time.Duration(c.Browser.NavigationTimeoutS) * time.Second
}

func (c *Config) GetRenderTimeout() time.Duration {
	return time.Duration(c.Browser.RenderTimeoutS) * time.Second
}

func (c *Config) GetSettleDelay() time.Duration {
	return time.Duration(c.Browser.SettleDelayMS) * time.Millisecond
}

func (c *Config) GetPollInterval() time.Duration {
	if c.Browser.PollIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.Browser.PollIntervalMS) * time.Millisecond
}

func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Storage.CommandTimeoutMS) * time.Millisecond
}

func (c *Config) GetRobotsCacheTTL() time.Duration {
	return time.Duration(c.RobotsCacheTTLHours) * time.Hour
}
