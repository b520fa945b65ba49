package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Tradewatch  TradewatchConfig  `yaml:"tradewatch"`
	Competition CompetitionConfig `yaml:"competition"`
	Session     SessionConfig     `yaml:"session"`
	Reader      ReaderConfig      `yaml:"reader"`
	Scraper     ScraperConfig     `yaml:"scraper"`
	Storage     StorageConfig     `yaml:"storage"`
	Dashboard   DashboardConfig   `yaml:"dashboard"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type TradewatchConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// CompetitionConfig identifies the game being scraped and the hosts the
// reader talks to. GameURI is the slug in the competition URL.
type CompetitionConfig struct {
	GameURI    string `yaml:"game_uri"`
	BaseURL    string `yaml:"base_url"`
	APIBaseURL string `yaml:"api_base_url"`
}

// SessionConfig carries the authenticated browser session the reader
// impersonates. Private competitions return login pages without it.
type SessionConfig struct {
	Cookie    string `yaml:"cookie"`
	UserAgent string `yaml:"user_agent"`
}

type ReaderConfig struct {
	MaxWorkers     int                  `yaml:"max_workers"`
	Timeout        time.Duration        `yaml:"timeout"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	ConnectionPool ConnectionPoolConfig `yaml:"connection_pool"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type ConnectionPoolConfig struct {
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxConnsPerHost int           `yaml:"max_conns_per_host"`
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

type ScraperConfig struct {
	Interval   time.Duration `yaml:"interval"`
	RunOnStart bool          `yaml:"run_on_start"`
}

type StorageConfig struct {
	Snapshot SnapshotConfig `yaml:"snapshot"`
	S3       S3Config       `yaml:"s3"`
	Kafka    KafkaConfig    `yaml:"kafka"`
}

// SnapshotConfig controls the local JSON output. FrontendDir, when set,
// receives a copy of every snapshot for the static site to serve.
type SnapshotConfig struct {
	Path        string `yaml:"path"`
	FrontendDir string `yaml:"frontend_dir"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type DashboardConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

type LoggingConfig struct {
	Level         string                 `yaml:"level"`
	Format        string                 `yaml:"format"`
	Output        string                 `yaml:"output"`
	MaxAge        int                    `yaml:"max_age"`
	Fields        map[string]interface{} `yaml:"fields"`
	DashboardName string                 `yaml:"dashboard_name"`
}

const defaultConfigPath = "config/config.yml"

var envConfigPaths = map[string]string{
	environmentProduction: "config/config.production.yml",
	environmentStaging:    "config/config.staging.yml",
}

func LoadConfig(path string) (*Config, error) {
	path = resolveEnvSpecificPath(path, defaultConfigPath, envConfigPaths)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Competition: CompetitionConfig{
			BaseURL:    "https://www.marketwatch.com",
			APIBaseURL: "https://vse-api.marketwatch.com",
		},
		Session: SessionConfig{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36",
		},
		Reader: ReaderConfig{
			MaxWorkers: 5,
			Timeout:    30 * time.Second,
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 2,
				BurstSize:         4,
			},
			ConnectionPool: ConnectionPoolConfig{
				MaxIdleConns:    10,
				MaxConnsPerHost: 5,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		Scraper: ScraperConfig{
			Interval:   5 * time.Minute,
			RunOnStart: true,
		},
		Storage: StorageConfig{
			Snapshot: SnapshotConfig{
				Path: "competition_data.json",
			},
		},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override session and S3 settings from environment variables if available
	if v := os.Getenv("MW_COOKIES"); v != "" {
		config.Session.Cookie = strings.TrimSpace(v)
	}
	if v := os.Getenv("MW_USER_AGENT"); v != "" {
		config.Session.UserAgent = strings.TrimSpace(v)
	}
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Tradewatch.Name == "" {
		return fmt.Errorf("tradewatch.name is required")
	}

	if cfg.Tradewatch.Version == "" {
		return fmt.Errorf("tradewatch.version is required")
	}

	if cfg.Competition.GameURI == "" {
		return fmt.Errorf("competition.game_uri is required")
	}

	if cfg.Reader.MaxWorkers <= 0 {
		return fmt.Errorf("reader.max_workers must be greater than 0")
	}
	if cfg.Reader.Timeout <= 0 {
		return fmt.Errorf("reader.timeout must be greater than 0")
	}
	if cfg.Reader.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("reader.rate_limit.requests_per_second must be greater than 0")
	}

	if cfg.Scraper.Interval <= 0 {
		return fmt.Errorf("scraper.interval must be greater than 0")
	}

	if cfg.Storage.Snapshot.Path == "" {
		return fmt.Errorf("storage.snapshot.path is required")
	}

	if cfg.Session.Cookie == "" && IsProductionLike(AppEnvironment()) {
		return fmt.Errorf("session.cookie (or MW_COOKIES) is required in production")
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if cfg.Storage.S3.AccessKeyID == "" || cfg.Storage.S3.SecretAccessKey == "" {
			return fmt.Errorf("storage.s3.access_key_id and storage.s3.secret_access_key are required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	if cfg.Storage.Kafka.Enabled {
		if len(cfg.Storage.Kafka.Brokers) == 0 {
			return fmt.Errorf("storage.kafka.brokers is required when Kafka is enabled")
		}
		if cfg.Storage.Kafka.Topic == "" {
			return fmt.Errorf("storage.kafka.topic is required when Kafka is enabled")
		}
	}

	if cfg.Dashboard.Enabled && cfg.Dashboard.Address == "" {
		return fmt.Errorf("dashboard.address is required when the dashboard is enabled")
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
