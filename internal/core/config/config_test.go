package config

import (
	"os"
	"testing"
	"time"
)

const (
	testSecret1 = "0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w"
	testSecret2 = "fedcba9876543210fedcba9876543210:YW5vdGhlcnNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w"
)

func TestHMACSecrets(t *testing.T) {
	os.Unsetenv("ET_HMAC_SECRET")
	os.Unsetenv("ET_HMAC_SECRET_1")
	os.Unsetenv("ET_HMAC_SECRET_2")

	t.Run("none", func(t *testing.T) {
		secrets, err := HMACSecrets()
		if err != nil {
			t.Fatalf("HMACSecrets failed: %v", err)
		}
		if len(secrets) != 0 {
			t.Errorf("expected 0 secrets, got %d", len(secrets))
		}
	})

	t.Run("single secret", func(t *testing.T) {
		os.Setenv("ET_HMAC_SECRET", testSecret1)
		defer os.Unsetenv("ET_HMAC_SECRET")

		secrets, err := HMACSecrets()
		if err != nil {
			t.Fatalf("HMACSecrets failed: %v", err)
		}
		if len(secrets) != 1 {
			t.Errorf("expected 1 secret, got %d", len(secrets))
		}
		if _, ok := secrets["0123456789abcdef0123456789abcdef"]; !ok {
			t.Errorf("secret_id not found in map")
		}
	})

	t.Run("multiple numbered secrets", func(t *testing.T) {
		os.Setenv("ET_HMAC_SECRET_1", testSecret1)
		os.Setenv("ET_HMAC_SECRET_2", testSecret2)
		defer os.Unsetenv("ET_HMAC_SECRET_1")
		defer os.Unsetenv("ET_HMAC_SECRET_2")

		secrets, err := HMACSecrets()
		if err != nil {
			t.Fatalf("HMACSecrets failed: %v", err)
		}
		if len(secrets) != 2 {
			t.Errorf("expected 2 secrets, got %d", len(secrets))
		}
	})

	t.Run("numbering stops at first gap", func(t *testing.T) {
		os.Setenv("ET_HMAC_SECRET_2", testSecret2)
		defer os.Unsetenv("ET_HMAC_SECRET_2")

		secrets, err := HMACSecrets()
		if err != nil {
			t.Fatalf("HMACSecrets failed: %v", err)
		}
		if len(secrets) != 0 {
			t.Errorf("expected 0 secrets without ET_HMAC_SECRET_1, got %d", len(secrets))
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		os.Setenv("ET_HMAC_SECRET", "invalid_format")
		defer os.Unsetenv("ET_HMAC_SECRET")

		if _, err := HMACSecrets(); err == nil {
			t.Error("expected error for invalid format")
		}
	})

	t.Run("duplicate secret_id between single and numbered", func(t *testing.T) {
		os.Setenv("ET_HMAC_SECRET", testSecret1)
		os.Setenv("ET_HMAC_SECRET_1", testSecret1)
		defer os.Unsetenv("ET_HMAC_SECRET")
		defer os.Unsetenv("ET_HMAC_SECRET_1")

		if _, err := HMACSecrets(); err == nil {
			t.Error("expected error for duplicate secret_id between ET_HMAC_SECRET and ET_HMAC_SECRET_1")
		}
	})
}

func TestLoadConfig(t *testing.T) {
	os.Unsetenv("ET_MATCH_API_HOST")
	os.Unsetenv("ET_MATCH_API_PORT")

	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Host != "0.0.0.0" {
			t.Errorf("expected host 0.0.0.0, got %s", cfg.Host)
		}
		if cfg.Port != 50061 {
			t.Errorf("expected port 50061, got %d", cfg.Port)
		}
		if cfg.MaxConnections != 1000 {
			t.Errorf("expected max_connections 1000, got %d", cfg.MaxConnections)
		}
		if cfg.RequestTimeout != 30*time.Second {
			t.Errorf("expected timeout 30s, got %v", cfg.RequestTimeout)
		}
		if cfg.MaxBatchSize != 1000 {
			t.Errorf("expected max_batch_size 1000, got %d", cfg.MaxBatchSize)
		}
		if cfg.MetricsPort != 0 {
			t.Errorf("expected metrics_port 0, got %d", cfg.MetricsPort)
		}
		if cfg.Address() != "0.0.0.0:50061" {
			t.Errorf("expected address 0.0.0.0:50061, got %s", cfg.Address())
		}
	})

	t.Run("environment override", func(t *testing.T) {
		os.Setenv("ET_MATCH_API_PORT", "9999")
		os.Setenv("ET_MATCH_API_HOST", "127.0.0.1")
		os.Setenv("ET_MATCH_API_REQUEST_TIMEOUT", "5s")
		defer os.Unsetenv("ET_MATCH_API_PORT")
		defer os.Unsetenv("ET_MATCH_API_HOST")
		defer os.Unsetenv("ET_MATCH_API_REQUEST_TIMEOUT")

		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Port != 9999 {
			t.Errorf("expected port 9999, got %d", cfg.Port)
		}
		if cfg.Host != "127.0.0.1" {
			t.Errorf("expected host 127.0.0.1, got %s", cfg.Host)
		}
		if cfg.RequestTimeout != 5*time.Second {
			t.Errorf("expected timeout 5s, got %v", cfg.RequestTimeout)
		}
	})

	t.Run("invalid port range", func(t *testing.T) {
		os.Setenv("ET_MATCH_API_PORT", "70000")
		defer os.Unsetenv("ET_MATCH_API_PORT")

		if _, err := LoadConfig(""); err == nil {
			t.Error("expected error for port > 65535")
		}
	})

	t.Run("metrics port collides", func(t *testing.T) {
		os.Setenv("ET_MATCH_API_METRICS_PORT", "50061")
		defer os.Unsetenv("ET_MATCH_API_METRICS_PORT")

		if _, err := LoadConfig(""); err == nil {
			t.Error("expected error for metrics_port == port")
		}
	})

	t.Run("invalid negative values", func(t *testing.T) {
		os.Setenv("ET_MATCH_API_MAX_BATCH_SIZE", "-1")
		defer os.Unsetenv("ET_MATCH_API_MAX_BATCH_SIZE")

		if _, err := LoadConfig(""); err == nil {
			t.Error("expected error for negative max_batch_size")
		}
	})
}

func TestParseHMACSecret(t *testing.T) {
	t.Run("valid base64", func(t *testing.T) {
		secret, err := ParseHMACSecret("dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		if err != nil {
			t.Fatalf("ParseHMACSecret failed: %v", err)
		}
		if len(secret) < 32 {
			t.Errorf("secret too short: %d bytes", len(secret))
		}
	})

	t.Run("invalid base64", func(t *testing.T) {
		if _, err := ParseHMACSecret("not-valid-base64!!!"); err == nil {
			t.Error("expected error for invalid base64")
		}
	})

	t.Run("secret too short", func(t *testing.T) {
		if _, err := ParseHMACSecret("c2hvcnQ="); err == nil {
			t.Error("expected error for secret < 32 bytes")
		}
	})
}

func TestParseHMACSecretWithID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid format", testSecret1, false},
		{"missing colon", "0123456789abcdef0123456789abcdef", true},
		{"short secret_id", "tooshort:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w", true},
		{"non-hex secret_id", "0123456789abcdefGHIJKLMNOPQRSTUV:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w", true},
		{"short secret", "0123456789abcdef0123456789abcdef:c2hvcnQ=", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secretID, secret, err := ParseHMACSecretWithID(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHMACSecretWithID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (secretID != "0123456789abcdef0123456789abcdef" || len(secret) == 0) {
				t.Errorf("ParseHMACSecretWithID() = %s, %d bytes", secretID, len(secret))
			}
		})
	}
}
