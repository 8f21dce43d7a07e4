package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for the Gidvion client.
type Config struct {
	General   GeneralConfig   `json:"general"`
	Backend   BackendConfig   `json:"backend"`
	Extractor ExtractorConfig `json:"extractor"`
	Store     StoreConfig     `json:"store"`
	Metrics   MetricsConfig   `json:"metrics"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel"`
	LogFile  string `json:"logFile,omitempty"` // optional log file path
}

// BackendConfig points the client at the Gidvion backend.
type BackendConfig struct {
	BaseURL               string `json:"baseUrl"`
	WebSocketURL          string `json:"webSocketUrl"`
	RequestTimeoutSeconds int    `json:"requestTimeoutSeconds"`
	HealthIntervalSeconds int    `json:"healthIntervalSeconds"`
}

// ExtractorConfig tunes client-side file processing.
type ExtractorConfig struct {
	// EnableOCR is declared for forward compatibility with the backend's
	// OCR pipeline; no local decoder consumes it yet.
	EnableOCR      bool     `json:"enableOcr"`
	MaxFileSizeMiB int      `json:"maxFileSizeMib"`
	BatchSize      int      `json:"batchSize"`
	AllowedTypes   []string `json:"allowedTypes,omitempty"` // extra MIME types beyond the built-in set
}

// StoreConfig locates the local settings and transcript database.
type StoreConfig struct {
	DBPath string `json:"dbPath"`
}

// MetricsConfig configures the optional Prometheus exposition endpoint
// used by the long-running chat REPL.
type MetricsConfig struct {
	Enabled  bool   `json:"enabled"`
	Endpoint string `json:"endpoint"`
}

// DefaultConfigDir returns the default config directory (~/.gidvion).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gidvion"
	}
	return filepath.Join(home, ".gidvion")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.Store.DBPath = ExpandPath(cfg.Store.DBPath)
	cfg.General.LogFile = ExpandPath(cfg.General.LogFile)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // Keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Backend.BaseURL == "" {
		errs = append(errs, "backend.baseUrl is required")
	}
	if !strings.HasPrefix(cfg.Backend.BaseURL, "http://") && !strings.HasPrefix(cfg.Backend.BaseURL, "https://") {
		errs = append(errs, "backend.baseUrl must start with http:// or https://")
	}
	if cfg.Backend.RequestTimeoutSeconds < 1 {
		errs = append(errs, "backend.requestTimeoutSeconds must be >= 1")
	}
	if cfg.Backend.HealthIntervalSeconds < 1 {
		errs = append(errs, "backend.healthIntervalSeconds must be >= 1")
	}
	if cfg.Extractor.MaxFileSizeMiB < 1 {
		errs = append(errs, "extractor.maxFileSizeMib must be >= 1")
	}
	if cfg.Extractor.BatchSize < 1 || cfg.Extractor.BatchSize > 32 {
		errs = append(errs, "extractor.batchSize must be between 1 and 32")
	}
	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
