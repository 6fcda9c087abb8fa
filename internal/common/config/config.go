// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Portal    PortalConfig    `mapstructure:"portal"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Platforms PlatformsConfig `mapstructure:"platforms"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// PortalConfig holds settings for the on-device automation portal. The portal
// owns a single device; everything here is about reaching it, not driving it.
type PortalConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	MaxRetries     int    `mapstructure:"max_retries"`
	RetryDelay     int    `mapstructure:"retry_delay"`     // milliseconds
	ConnectRetries int    `mapstructure:"connect_retries"` // startup reachability probe
}

// LLMConfig carries the language-model provider credential through to the
// portal. A missing key is a warning at startup, not a failure; the portal
// rejects the session when it actually needs the credential.
type LLMConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
}

type PlatformsConfig struct {
	RegistryPath string `mapstructure:"registry_path"`
}

// WorkflowConfig holds tunables for multi-stage workflows.
type WorkflowConfig struct {
	InviteCooldown int `mapstructure:"invite_cooldown"` // milliseconds between invite sessions
	StageDelay     int `mapstructure:"stage_delay"`     // milliseconds between workflow stages
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// HasLLMCredential reports whether a provider credential was supplied via
// config or environment.
func (c LLMConfig) HasLLMCredential() bool {
	return c.APIKey != ""
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
