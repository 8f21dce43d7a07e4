package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Backend: BackendConfig{
			BaseURL:               "http://localhost:8000",
			WebSocketURL:          "ws://localhost:8000",
			RequestTimeoutSeconds: 120,
			HealthIntervalSeconds: 30,
		},
		Extractor: ExtractorConfig{
			EnableOCR:      false,
			MaxFileSizeMiB: 50,
			BatchSize:      3,
		},
		Store: StoreConfig{
			DBPath: "~/.gidvion/gidvion.db",
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Endpoint: "127.0.0.1:9190",
		},
	}
}
