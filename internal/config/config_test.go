package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	v.Set("jwt_secret", "fixed")
	cfg := Load(v)

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DBPath != filepath.Join("./data", "transdesk.db") {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.Provider.Endpoint != "https://api.deepseek.com" {
		t.Errorf("Provider.Endpoint = %q", cfg.Provider.Endpoint)
	}
	if cfg.Provider.Model != "deepseek-chat" {
		t.Errorf("Provider.Model = %q", cfg.Provider.Model)
	}
	if cfg.Provider.Timeout != 60*time.Second {
		t.Errorf("Provider.Timeout = %v", cfg.Provider.Timeout)
	}
	if cfg.SessionTTL != 72*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TRANSDESK_PORT", "9090")
	t.Setenv("TRANSDESK_PROVIDER_CONCURRENCY", "0")
	t.Setenv("TRANSDESK_CORS_ORIGINS", "http://a.example, http://b.example,")
	t.Setenv("TRANSDESK_JWT_SECRET", "from-env")

	cfg := Load(viper.New())

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.JWTSecret != "from-env" {
		t.Errorf("JWTSecret = %q", cfg.JWTSecret)
	}
	if cfg.Provider.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want clamp to 1", cfg.Provider.Concurrency)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoadGeneratesSecret(t *testing.T) {
	cfg := Load(viper.New())
	if len(cfg.JWTSecret) != 64 {
		t.Errorf("generated secret length = %d, want 64", len(cfg.JWTSecret))
	}
}
