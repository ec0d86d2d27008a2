// Package config loads the orchestrator's configuration from a YAML file
// with TELEOP_-prefixed environment overrides on top. Precedence, highest
// first: environment, file, defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/mwidla/teleop"
)

const envPrefix = "TELEOP_"

// Config is the complete orchestrator configuration.
type Config struct {
	Model    ModelConfig    `koanf:"model"`
	Approval ApprovalConfig `koanf:"approval"`
	Log      LogConfig      `koanf:"log"`
	Robot    RobotConfig    `koanf:"robot"`
	Sandbox  SandboxConfig  `koanf:"sandbox"`
	Mode     string         `koanf:"mode"`
}

// ModelConfig selects the completion backend and its parameters.
type ModelConfig struct {
	// Provider is "openai" or "gemini".
	Provider    string   `koanf:"provider"`
	Name        string   `koanf:"name"`
	BaseURL     string   `koanf:"base_url"`
	APIKeyEnv   string   `koanf:"api_key_env"`
	Temperature *float64 `koanf:"temperature"`
	MaxTokens   int      `koanf:"max_tokens"`
}

// ApprovalConfig controls the approval gate's escape hatches.
type ApprovalConfig struct {
	AutoApprove bool     `koanf:"auto_approve"`
	DryRun      bool     `koanf:"dry_run"`
	Mocks       bool     `koanf:"mocks"`
	Allowlist   []string `koanf:"allowlist"`
	AuditPath   string   `koanf:"audit_path"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is "json" or "console".
	Format string `koanf:"format"`
	// Path is the log file; empty logs to stderr.
	Path string `koanf:"path"`
}

// RobotConfig selects the robot transport.
type RobotConfig struct {
	// Transport is "virtual" for now; real SDK transports register here.
	Transport string `koanf:"transport"`
}

// SandboxConfig controls the code-generation script runner.
type SandboxConfig struct {
	Interpreter    string `koanf:"interpreter"`
	TimeoutSeconds int    `koanf:"timeout_seconds"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		Model: ModelConfig{
			Provider:  "openai",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Robot: RobotConfig{
			Transport: "virtual",
		},
		Sandbox: SandboxConfig{
			Interpreter:    "python3",
			TimeoutSeconds: 60,
		},
		Mode: string(teleop.ModeFunctionCalling),
	}
}

// Load reads the YAML file at path (skipped when path is empty or absent)
// and applies TELEOP_ environment overrides. TELEOP_MODEL_NAME maps to
// model.name, TELEOP_APPROVAL_AUTO_APPROVE to approval.auto_approve, and
// so on.
func Load(path string) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", transformEnv), nil); err != nil {
		return cfg, fmt.Errorf("config: environment: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// transformEnv maps TELEOP_SECTION_FIELD_NAME to section.field_name. The
// first underscore separates the section; the rest of the key stays joined.
func transformEnv(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	section, field, found := strings.Cut(s, "_")
	if !found {
		return section
	}
	return section + "." + field
}

// Validate rejects values the wiring cannot act on.
func (c Config) Validate() error {
	if c.Model.Provider != "openai" && c.Model.Provider != "gemini" {
		return fmt.Errorf("config: unknown model provider %q: %w", c.Model.Provider, teleop.ErrValidation)
	}
	if !teleop.Mode(c.Mode).Valid() {
		return fmt.Errorf("config: unknown mode %q: %w", c.Mode, teleop.ErrValidation)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("config: unknown log format %q: %w", c.Log.Format, teleop.ErrValidation)
	}
	if c.Sandbox.TimeoutSeconds <= 0 {
		return fmt.Errorf("config: sandbox timeout must be positive: %w", teleop.ErrValidation)
	}
	return nil
}

// APIKey resolves the model API key from the configured environment
// variable.
func (c ModelConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}
