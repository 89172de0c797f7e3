package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
// Fields are populated from flags with CHATGEAR_* environment variables as
// defaults.
type Config struct {
	CDPURL      string `env:"CHATGEAR_CDP_URL"`
	RelayURL    string `env:"CHATGEAR_RELAY_URL"`
	ProfilePath string `env:"CHATGEAR_PROFILE"`
	DataDir     string `env:"CHATGEAR_DATA_DIR"`

	LogFormat string `env:"CHATGEAR_LOG_FORMAT"`
	LogLevel  string `env:"CHATGEAR_LOG_LEVEL"`
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.DataDir == "" {
		return nil, errors.New("DataDir is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
