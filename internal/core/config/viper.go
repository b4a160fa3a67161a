package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence; flags are
// applied by the caller after LoadConfig returns.
func LoadConfig(configPath string) (*MatchAPIConfig, error) {
	v := viper.New()

	defaults := DefaultMatchAPIConfig()
	v.SetDefault("match_api.host", defaults.Host)
	v.SetDefault("match_api.port", defaults.Port)
	v.SetDefault("match_api.max_connections", defaults.MaxConnections)
	v.SetDefault("match_api.request_timeout", defaults.RequestTimeout.String())
	v.SetDefault("match_api.max_batch_size", defaults.MaxBatchSize)
	v.SetDefault("match_api.metrics_port", defaults.MetricsPort)

	// ET_MATCH_API_PORT -> match_api.port
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &MatchAPIConfig{
		Host:           v.GetString("match_api.host"),
		Port:           v.GetInt("match_api.port"),
		MaxConnections: v.GetInt("match_api.max_connections"),
		RequestTimeout: v.GetDuration("match_api.request_timeout"),
		MaxBatchSize:   v.GetInt("match_api.max_batch_size"),
		MetricsPort:    v.GetInt("match_api.metrics_port"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port ranges and positive limits.
func validateConfig(cfg *MatchAPIConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return fmt.Errorf("metrics_port must be between 0 and 65535, got %d", cfg.MetricsPort)
	}
	if cfg.MetricsPort != 0 && cfg.MetricsPort == cfg.Port {
		return fmt.Errorf("metrics_port must differ from port %d", cfg.Port)
	}
	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive, got %d", cfg.MaxConnections)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive, got %d", cfg.MaxBatchSize)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("hmac_secret") || v.InConfig("match_api.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use %s_HMAC_SECRET environment variable)", EnvPrefix)
	}
	return nil
}
