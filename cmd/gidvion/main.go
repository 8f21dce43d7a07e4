package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gidvion/internal/api"
	"gidvion/internal/config"
	"gidvion/internal/fileproc"
	"gidvion/internal/metrics"
	"gidvion/internal/model"
	"gidvion/internal/session"
)

var (
	version    = "0.3.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:     "gidvion",
		Short:   "Gidvion: terminal client for the Gidvion multi-model AI chat backend",
		Long:    "Gidvion talks to an external Gidvion backend: multi-model chat with file attachments, ephemeral rooms, and local file text extraction.",
		Version: version,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.gidvion/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(extractCmd())
	root.AddCommand(roomCmd())
	root.AddCommand(conversationsCmd())
	root.AddCommand(loginCmd())
	root.AddCommand(logoutCmd())
	root.AddCommand(whoamiCmd())
	root.AddCommand(modelsCmd())
	root.AddCommand(builderCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(configCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the config directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			cfgPath := config.DefaultConfigPath()
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func loadConfig() *config.Config {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		return config.Defaults()
	}
	return cfg
}

// setupLogger rebuilds the process logger from config. Log output goes
// to a file when one is configured so it never interleaves with the REPL.
func setupLogger(cfg *config.Config) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.General.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	out := os.Stderr
	if cfg.General.LogFile != "" {
		f, err := os.OpenFile(config.ExpandPath(cfg.General.LogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Warn("cannot open log file, logging to stderr", "path", cfg.General.LogFile, "err", err)
		} else {
			out = f
		}
	}
	logger = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

func openStore(cfg *config.Config) (*session.SQLiteStore, error) {
	return session.Open(config.ExpandPath(cfg.Store.DBPath), logger)
}

func newAPIClient(cfg *config.Config, store session.Store) *api.Client {
	return api.New(api.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: time.Duration(cfg.Backend.RequestTimeoutSeconds) * time.Second,
		Tokens:  store,
		Logger:  logger,
		OnUnauthorized: func() {
			logger.Warn("session expired, clearing stored token")
			if err := store.ClearAuth(context.Background()); err != nil {
				logger.Error("cannot clear stored token", "err", err)
			}
		},
	})
}

func newProcessor(cfg *config.Config, pdf fileproc.PDFDelegate) *fileproc.Processor {
	return fileproc.New(fileproc.Config{
		EnableOCR:    cfg.Extractor.EnableOCR,
		MaxFileSize:  int64(cfg.Extractor.MaxFileSizeMiB) * 1024 * 1024,
		BatchSize:    cfg.Extractor.BatchSize,
		AllowedTypes: cfg.Extractor.AllowedTypes,
		Logger:       logger,
	}, pdf)
}

// startMetrics exposes the Prometheus endpoint when enabled.
func startMetrics(cfg *config.Config) {
	if !cfg.Metrics.Enabled {
		return
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", metrics.Collector.Handler())
	go func() {
		logger.Info("metrics listening", "endpoint", cfg.Metrics.Endpoint)
		if err := http.ListenAndServe(cfg.Metrics.Endpoint, mux); err != nil {
			logger.Error("metrics server stopped", "err", err)
		}
	}()
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List supported models",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := model.NewRegistry()
			if err := registry.LoadCatalog(config.DefaultConfigDir(), logger); err != nil {
				logger.Warn("model catalog not loaded", "err", err)
			}
			for _, id := range registry.IDs() {
				entry, _ := registry.Lookup(id)
				key := ""
				if entry.RequiresKey() {
					key = " (requires API key)"
				}
				fmt.Printf("%-24s %s%s\n", id, entry.Provider, key)
			}
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backend and session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			client := newAPIClient(cfg, store)

			if err := client.Health(cmd.Context()); err != nil {
				logger.Info("backend", "url", cfg.Backend.BaseURL, "healthy", false, "err", err)
			} else {
				logger.Info("backend", "url", cfg.Backend.BaseURL, "healthy", true)
			}

			if _, _, ok := store.AuthToken(); ok {
				user, err := client.CurrentUser(cmd.Context())
				if err != nil {
					logger.Info("session", "authenticated", false, "err", err)
				} else {
					logger.Info("session", "authenticated", true, "user", user.Username)
				}
			} else {
				logger.Info("session", "authenticated", false)
			}

			if m := store.SelectedModel(); m != "" {
				logger.Info("model", "selected", m)
			}
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			data, _ := json.MarshalIndent(cfg, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get [key]",
		Short: "Get a config value (e.g. backend.baseUrl)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			val, err := getConfigKey(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Println(val)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [key] [value]",
		Short: "Set a config value (e.g. backend.baseUrl http://host:8000)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				cfg = config.Defaults()
			}
			if err := setConfigKey(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "key", args[0], "value", args[1], "file", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}

func getConfigKey(cfg *config.Config, key string) (string, error) {
	switch key {
	case "general.logLevel":
		return cfg.General.LogLevel, nil
	case "general.logFile":
		return cfg.General.LogFile, nil
	case "backend.baseUrl":
		return cfg.Backend.BaseURL, nil
	case "backend.webSocketUrl":
		return cfg.Backend.WebSocketURL, nil
	case "backend.requestTimeoutSeconds":
		return strconv.Itoa(cfg.Backend.RequestTimeoutSeconds), nil
	case "backend.healthIntervalSeconds":
		return strconv.Itoa(cfg.Backend.HealthIntervalSeconds), nil
	case "extractor.maxFileSizeMib":
		return strconv.Itoa(cfg.Extractor.MaxFileSizeMiB), nil
	case "extractor.batchSize":
		return strconv.Itoa(cfg.Extractor.BatchSize), nil
	case "store.dbPath":
		return cfg.Store.DBPath, nil
	case "metrics.enabled":
		return strconv.FormatBool(cfg.Metrics.Enabled), nil
	case "metrics.endpoint":
		return cfg.Metrics.Endpoint, nil
	}
	return "", fmt.Errorf("unknown config key %q", key)
}

func setConfigKey(cfg *config.Config, key, value string) error {
	switch key {
	case "general.logLevel":
		cfg.General.LogLevel = value
	case "general.logFile":
		cfg.General.LogFile = value
	case "backend.baseUrl":
		cfg.Backend.BaseURL = value
	case "backend.webSocketUrl":
		cfg.Backend.WebSocketURL = value
	case "backend.requestTimeoutSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		cfg.Backend.RequestTimeoutSeconds = n
	case "backend.healthIntervalSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		cfg.Backend.HealthIntervalSeconds = n
	case "extractor.maxFileSizeMib":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		cfg.Extractor.MaxFileSizeMiB = n
	case "extractor.batchSize":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		cfg.Extractor.BatchSize = n
	case "store.dbPath":
		cfg.Store.DBPath = value
	case "metrics.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		cfg.Metrics.Enabled = b
	case "metrics.endpoint":
		cfg.Metrics.Endpoint = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}
