// Package config loads the Hermes configuration: JSON5 file with
// environment-variable overrides. Env vars always win over file values.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config is the full Hermes configuration.
type Config struct {
	Provider     ProviderConfig     `json:"provider"`
	Orchestrator OrchestratorConfig `json:"orchestrator"`
	Skills       SkillsConfig       `json:"skills"`
	Scheduler    SchedulerConfig    `json:"scheduler"`
	Watcher      WatcherConfig      `json:"watcher"`
	Sender       SenderConfig       `json:"sender"`
	Database     DatabaseConfig     `json:"database"`
	Telemetry    TelemetryConfig    `json:"telemetry"`
	LogLevel     string             `json:"logLevel"` // "debug", "info", "warn", "error"
}

// ProviderConfig configures the LLM provider.
type ProviderConfig struct {
	APIKey            string  `json:"apiKey,omitempty"` // env only in practice
	Model             string  `json:"model"`
	BaseURL           string  `json:"baseUrl,omitempty"`
	MaxTokens         int     `json:"maxTokens"`
	Temperature       float64 `json:"temperature"`
	MaxToolIterations int     `json:"maxToolIterations"`
}

// OrchestratorConfig bounds the conversation window fed to the planner.
type OrchestratorConfig struct {
	WindowMaxAgeHours int `json:"windowMaxAgeHours"`
	WindowMaxMessages int `json:"windowMaxMessages"`
	WindowMaxTokens   int `json:"windowMaxTokens"`
}

// SkillsConfig configures the filesystem skill registry.
type SkillsConfig struct {
	BundledDir          string  `json:"bundledDir"`
	ImportedDir         string  `json:"importedDir"`
	ConfidenceThreshold float64 `json:"confidenceThreshold"`
	Watch               bool    `json:"watch"` // rebuild on filesystem changes
}

// SchedulerConfig configures the scheduled-job runner.
type SchedulerConfig struct {
	IntervalSeconds int      `json:"intervalSeconds"`
	ReadOnlyTools   []string `json:"readOnlyTools"`
}

// WatcherConfig configures the background mailbox watcher.
type WatcherConfig struct {
	Enabled                 bool `json:"enabled"`
	IntervalSeconds         int  `json:"intervalSeconds"`
	MaxNotificationsPerHour int  `json:"maxNotificationsPerHour"`
}

// SenderConfig bounds outbound delivery per user.
type SenderConfig struct {
	RatePerMinute float64 `json:"ratePerMinute"`
	Burst         int     `json:"burst"`
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	Mode        string `json:"mode"` // "sqlite" (standalone) or "postgres" (managed)
	SQLitePath  string `json:"sqlitePath"`
	PostgresDSN string `json:"-"` // env only, never persisted
}

// TelemetryConfig configures OTLP trace export.
type TelemetryConfig struct {
	Enabled     bool   `json:"enabled"`
	Endpoint    string `json:"endpoint"`
	Protocol    string `json:"protocol"` // "grpc" or "http"
	ServiceName string `json:"serviceName"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Model:             "claude-sonnet-4-5-20250929",
			MaxTokens:         4096,
			Temperature:       0.7,
			MaxToolIterations: 10,
		},
		Orchestrator: OrchestratorConfig{
			WindowMaxAgeHours: 24,
			WindowMaxMessages: 20,
			WindowMaxTokens:   4000,
		},
		Skills: SkillsConfig{
			BundledDir:          "~/.hermes/skills",
			ImportedDir:         "~/.hermes/skills-imported",
			ConfidenceThreshold: 0.3,
			Watch:               true,
		},
		Scheduler: SchedulerConfig{
			IntervalSeconds: 60,
			ReadOnlyTools: []string{
				"current_time", "resolve_date",
				"search_email", "read_email",
				"list_calendar_events", "search_memory",
			},
		},
		Watcher: WatcherConfig{
			IntervalSeconds:         300,
			MaxNotificationsPerHour: 3,
		},
		Sender: SenderConfig{
			RatePerMinute: 10,
			Burst:         3,
		},
		Database: DatabaseConfig{
			Mode:       "sqlite",
			SQLitePath: "~/.hermes/hermes.db",
		},
		Telemetry: TelemetryConfig{
			Protocol:    "grpc",
			ServiceName: "hermes",
		},
		LogLevel: "info",
	}
}

// applyEnvOverrides overlays HERMES_* env vars onto the config.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = v == "true" || v == "1"
		}
	}
	envInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				*dst = n
			}
		}
	}

	envStr("HERMES_ANTHROPIC_API_KEY", &c.Provider.APIKey)
	envStr("HERMES_MODEL", &c.Provider.Model)
	envStr("HERMES_PROVIDER_BASE_URL", &c.Provider.BaseURL)

	envStr("HERMES_SKILLS_DIR", &c.Skills.BundledDir)
	envStr("HERMES_IMPORTED_SKILLS_DIR", &c.Skills.ImportedDir)

	envInt("HERMES_SCHEDULER_INTERVAL_SECONDS", &c.Scheduler.IntervalSeconds)
	envBool("HERMES_WATCHER_ENABLED", &c.Watcher.Enabled)
	envInt("HERMES_WATCHER_INTERVAL_SECONDS", &c.Watcher.IntervalSeconds)

	envStr("HERMES_MODE", &c.Database.Mode)
	envStr("HERMES_SQLITE_PATH", &c.Database.SQLitePath)
	envStr("HERMES_POSTGRES_DSN", &c.Database.PostgresDSN)

	envBool("HERMES_TELEMETRY_ENABLED", &c.Telemetry.Enabled)
	envStr("HERMES_TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)
	envStr("HERMES_TELEMETRY_PROTOCOL", &c.Telemetry.Protocol)
	envStr("HERMES_TELEMETRY_SERVICE_NAME", &c.Telemetry.ServiceName)

	envStr("HERMES_LOG_LEVEL", &c.LogLevel)
}

// Validate checks the fields the process cannot start without.
func (c *Config) Validate() error {
	if c.Provider.APIKey == "" {
		return fmt.Errorf("provider API key is required (HERMES_ANTHROPIC_API_KEY)")
	}
	switch c.Database.Mode {
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required in sqlite mode")
		}
	case "postgres":
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("postgres DSN is required in postgres mode (HERMES_POSTGRES_DSN)")
		}
	default:
		return fmt.Errorf("unknown database mode %q", c.Database.Mode)
	}
	return nil
}
