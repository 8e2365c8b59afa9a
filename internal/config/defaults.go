package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:       "~/.config/ecodash",
			SQLiteFile: "ecodash.db",
		},
		Daemon: DaemonConfig{
			Host: "127.0.0.1",
			Port: 8417,
		},
		Advisor: AdvisorConfig{
			Enabled:         true,
			APIURL:          "https://api.groq.com/openai/v1/chat/completions",
			APIKey:          "",
			Model:           "deepseek-r1-distill-llama-70b",
			Temperature:     0.7,
			MaxTokens:       350,
			IntervalMinutes: 10080, // weekly
			TimeoutSeconds:  60,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
