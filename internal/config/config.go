package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort          = 8080
	DefaultTitle             = "Host Monitoring"
	DefaultStaleAfter        = 5 * time.Second
	DefaultBroadcastInterval = time.Second
	DefaultSparklineRange    = 180
)

// Config is the top-level configuration parsed from config.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Alerts AlertsConfig `yaml:"alerts"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// Host is the address the HTTP server binds to. Empty means all interfaces.
	Host string `yaml:"host"`

	// HTTPPort is the port the dashboard API and WebSocket hub listen on
	// (default 8080).
	HTTPPort int `yaml:"http_port"`

	// Title is the dashboard display name reported by the health endpoint.
	Title string `yaml:"title"`

	// LogDir is the directory holding per-host probe log files. Required,
	// though it may also be supplied by the -log-dir flag.
	LogDir string `yaml:"log_dir"`

	// TargetsFile is the optional deadman targets file (name<TAB>address per
	// line). Its order drives the dashboard ordering.
	TargetsFile string `yaml:"targets_file"`

	// StaleAfter is how long a host may go silent before it is reported
	// stale. Default: 5s.
	StaleAfter time.Duration `yaml:"stale_after"`

	// BroadcastInterval is how often the WebSocket hub refreshes and pushes a
	// snapshot to connected clients. Default: 1s.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`

	// SparklineRange is the default number of samples in a snapshot's
	// sparkline when the client does not pass time_range. Default: 180.
	SparklineRange int `yaml:"sparkline_range"`
}

// AlertsConfig holds alerting rules and webhook delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines one threshold-based alert condition.
type AlertRule struct {
	// Name is the human-readable alert identifier, used as the deduplication key.
	Name string `yaml:"name"`

	// Condition is a simple expression against a monitor snapshot:
	// "loss_rate > 10", "current_ms > 250", "status == down".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	// Defaults to 15 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: slack | teams | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Load reads and parses the config file at path. Missing fields are filled
// with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Defaults returns a Config pre-populated with default values. Callers that
// run without a config file start from here and apply flag overrides.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:          DefaultHTTPPort,
			Title:             DefaultTitle,
			StaleAfter:        DefaultStaleAfter,
			BroadcastInterval: DefaultBroadcastInterval,
			SparklineRange:    DefaultSparklineRange,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.StaleAfter <= 0 {
		return fmt.Errorf("server.stale_after must be positive")
	}
	if cfg.Server.BroadcastInterval <= 0 {
		return fmt.Errorf("server.broadcast_interval must be positive")
	}
	if cfg.Server.SparklineRange <= 0 {
		return fmt.Errorf("server.sparkline_range must be positive")
	}
	for _, r := range cfg.Alerts.Rules {
		if r.Name == "" {
			return fmt.Errorf("alerts.rules: every rule needs a name")
		}
		if r.Condition == "" {
			return fmt.Errorf("alerts.rules %q: condition is required", r.Name)
		}
	}
	for _, w := range cfg.Alerts.Webhooks {
		switch w.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("alerts.webhooks type %q unknown: want slack|teams|http", w.Type)
		}
	}
	return nil
}
