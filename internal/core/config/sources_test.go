package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eventtrail.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestConfigSources verifies secret handling and source precedence.
func TestConfigSources(t *testing.T) {
	t.Run("config file with hmac_secret rejected", func(t *testing.T) {
		path := writeConfig(t, `match_api:
  host: "localhost"
  port: 8080
  hmac_secret: "should_be_rejected"
`)

		_, err := LoadConfig(path)
		if err == nil {
			t.Fatal("expected error for secret in config file")
		}
		if err.Error() != "HMAC secrets not allowed in config files (use ET_HMAC_SECRET environment variable)" {
			t.Fatalf("wrong error message: %v", err)
		}
	})

	t.Run("secret in environment does not trip the file check", func(t *testing.T) {
		os.Setenv("ET_HMAC_SECRET", testSecret1)
		defer os.Unsetenv("ET_HMAC_SECRET")

		if _, err := LoadConfig(""); err != nil {
			t.Fatalf("LoadConfig error: %v", err)
		}
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := writeConfig(t, `match_api:
  port: 9090
  metrics_port: 9091
  max_batch_size: 50
`)

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig error: %v", err)
		}
		if cfg.Port != 9090 || cfg.MetricsPort != 9091 || cfg.MaxBatchSize != 50 {
			t.Fatalf("file values not applied: %+v", cfg)
		}
		if cfg.Host != "0.0.0.0" {
			t.Fatalf("default host lost: %s", cfg.Host)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		os.Setenv("ET_MATCH_API_PORT", "8080")
		defer os.Unsetenv("ET_MATCH_API_PORT")

		path := writeConfig(t, `match_api:
  port: 9090
`)

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig error: %v", err)
		}
		if cfg.Port != 8080 {
			t.Fatalf("environment should override config file. Expected 8080, got %d", cfg.Port)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Fatal("expected error for missing config file")
		}
	})
}
