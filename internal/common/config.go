package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Pool        PoolConfig      `toml:"pool"`
	LLM         LLMConfig       `toml:"llm"`
	Claude      ClaudeConfig    `toml:"claude"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Mail        MailConfig      `toml:"mail"`
	GitHub      GitHubConfig    `toml:"github"`
	Campaigns   CampaignsConfig `toml:"campaigns"`
	Reports     ReportsConfig   `toml:"reports"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"`
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs
}

// SchedulerConfig controls the campaign queue manager and its processing nodes.
type SchedulerConfig struct {
	NodeCount           int           `toml:"node_count" validate:"gte=1"`    // Number of processing nodes created at startup
	NodeCapacity        int           `toml:"node_capacity" validate:"gte=1"` // Concurrent campaigns per node
	NodeRegion          string        `toml:"node_region"`                    // Region label applied to nodes
	HealthCheckInterval time.Duration `toml:"health_check_interval"`          // Health/dispatch tick (default 30s)
	ProgressInterval    time.Duration `toml:"progress_interval"`              // Processor progress persistence tick (default 60s)
	MaxRetries          int           `toml:"max_retries" validate:"gte=0"`   // Campaign retry budget
	MemoryThresholdMB   int           `toml:"memory_threshold_mb"`            // Node health memory ceiling
}

// PoolConfig controls the browser automation instance pool.
type PoolConfig struct {
	MaxInstances    int           `toml:"max_instances" validate:"gte=1"` // Hard cap on concurrent browser instances
	UserAgent       string        `toml:"user_agent"`
	Headless        bool          `toml:"headless"`
	DisableGPU      bool          `toml:"disable_gpu"`
	NoSandbox       bool          `toml:"no_sandbox"`
	MonitorInterval time.Duration `toml:"monitor_interval"` // Pool monitor tick (default 5s)
	IdleTimeout     time.Duration `toml:"idle_timeout"`     // Instances idle longer than this are flagged (default 10m)
	MaxErrors       int           `toml:"max_errors"`       // Error-log size before an instance is flagged (default 5)
	JobBatchSize    int           `toml:"job_batch_size"`   // Approved jobs claimed per automation run (default 5)
	JobDelayMin     time.Duration `toml:"job_delay_min"`    // Minimum randomized delay between jobs (default 3s)
	JobDelayMax     time.Duration `toml:"job_delay_max"`    // Maximum randomized delay between jobs (default 5s)
	NavigateTimeout time.Duration `toml:"navigate_timeout"` // Per-navigation timeout (default 30s)
}

// LLMConfig selects the content generation provider.
type LLMConfig struct {
	Provider string `toml:"provider" validate:"oneof=claude gemini"` // "claude" or "gemini"
}

type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
}

type GeminiConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`
}

// MailConfig configures the IMAP verification-mail checker.
type MailConfig struct {
	Enabled      bool          `toml:"enabled"`
	Host         string        `toml:"host"`
	Port         int           `toml:"port"`
	Username     string        `toml:"username"`
	Password     string        `toml:"password"`
	UseTLS       bool          `toml:"use_tls"`
	Folder       string        `toml:"folder"`
	PollInterval time.Duration `toml:"poll_interval"`
}

// GitHubConfig configures resource-page target discovery.
type GitHubConfig struct {
	Token string `toml:"token"`
}

// CampaignsConfig contains configuration for campaign seed definitions.
type CampaignsConfig struct {
	DefinitionsDir string `toml:"definitions_dir"` // Directory containing campaign definition files (YAML)
}

// ReportsConfig contains configuration for completion report output.
type ReportsConfig struct {
	Dir string `toml:"dir"` // Directory for generated PDF reports
}

// DefaultConfig returns a configuration with sensible defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{Path: "./data/linkforge"},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Scheduler: SchedulerConfig{
			NodeCount:           3,
			NodeCapacity:        5,
			NodeRegion:          "local",
			HealthCheckInterval: 30 * time.Second,
			ProgressInterval:    60 * time.Second,
			MaxRetries:          3,
			MemoryThresholdMB:   2048,
		},
		Pool: PoolConfig{
			MaxInstances:    10,
			UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			Headless:        true,
			DisableGPU:      true,
			NoSandbox:       false,
			MonitorInterval: 5 * time.Second,
			IdleTimeout:     10 * time.Minute,
			MaxErrors:       5,
			JobBatchSize:    5,
			JobDelayMin:     3 * time.Second,
			JobDelayMax:     5 * time.Second,
			NavigateTimeout: 30 * time.Second,
		},
		LLM: LLMConfig{Provider: "claude"},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			Timeout:     "60s",
			MaxTokens:   1024,
			Temperature: 0.7,
		},
		Gemini: GeminiConfig{
			Model:   "gemini-2.0-flash",
			Timeout: "60s",
		},
		Mail: MailConfig{
			Port:         993,
			UseTLS:       true,
			Folder:       "INBOX",
			PollInterval: 2 * time.Minute,
		},
		Campaigns: CampaignsConfig{DefinitionsDir: "./campaigns"},
		Reports:   ReportsConfig{Dir: "./reports"},
	}
}

// LoadFromFiles loads configuration from one or more TOML files.
// Later files override earlier ones; environment variables override files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies LINKFORGE_* environment variable overrides.
// Provider API keys also honor their conventional variables.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("LINKFORGE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("LINKFORGE_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("LINKFORGE_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("LINKFORGE_BADGER_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && config.Claude.APIKey == "" {
		config.Claude.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && config.Gemini.APIKey == "" {
		config.Gemini.APIKey = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" && config.GitHub.Token == "" {
		config.GitHub.Token = v
	}
}

// Validate checks the configuration against struct validation tags.
func Validate(config *Config) error {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority).
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
