package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           int
	DataPath       string
	DBPath         string
	JWTSecret      string
	SessionTTL     time.Duration
	AdminUsername  string
	AdminPassword  string
	CORSOrigins    []string
	CookieSecure   bool
	UploadMaxBytes int64
	LoginRateLimit int
	Provider       ProviderConfig
}

// ProviderConfig holds the process-wide defaults for the chat-completion provider.
// Projects and global settings may override the endpoint and key at request time.
type ProviderConfig struct {
	Endpoint    string
	Model       string
	Timeout     time.Duration
	Concurrency int
}

// SetDefaults registers default values on v. Exposed so the CLI can bind flags
// before Load reads the merged view.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("data_path", "./data")
	v.SetDefault("db_path", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("session_ttl", "72h")
	v.SetDefault("admin_username", "admin")
	v.SetDefault("admin_password", "admin")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("cookie_secure", false)
	v.SetDefault("upload_max_bytes", 10<<20)
	v.SetDefault("login_rate_limit", 10)
	v.SetDefault("provider.endpoint", "https://api.deepseek.com")
	v.SetDefault("provider.model", "deepseek-chat")
	v.SetDefault("provider.timeout", "60s")
	v.SetDefault("provider.concurrency", 8)
}

// Load builds a Config from v. Environment variables use the TRANSDESK_ prefix,
// with dots replaced by underscores (TRANSDESK_PROVIDER_ENDPOINT).
func Load(v *viper.Viper) *Config {
	SetDefaults(v)
	v.SetEnvPrefix("TRANSDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	dataPath := v.GetString("data_path")
	dbPath := v.GetString("db_path")
	if dbPath == "" {
		dbPath = filepath.Join(dataPath, "transdesk.db")
	}

	// JWT secret: require explicit setting or generate random
	jwtSecret := v.GetString("jwt_secret")
	if jwtSecret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			log.Fatalf("Failed to generate random JWT secret: %v", err)
		}
		jwtSecret = hex.EncodeToString(b)
		log.Println("WARNING: jwt_secret not set, using random secret. Sessions will not survive restarts. Set TRANSDESK_JWT_SECRET for persistent sessions.")
	}

	concurrency := v.GetInt("provider.concurrency")
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Config{
		Port:           v.GetInt("port"),
		DataPath:       dataPath,
		DBPath:         dbPath,
		JWTSecret:      jwtSecret,
		SessionTTL:     v.GetDuration("session_ttl"),
		AdminUsername:  v.GetString("admin_username"),
		AdminPassword:  v.GetString("admin_password"),
		CORSOrigins:    parseOrigins(v.GetString("cors_origins")),
		CookieSecure:   v.GetBool("cookie_secure"),
		UploadMaxBytes: v.GetInt64("upload_max_bytes"),
		LoginRateLimit: v.GetInt("login_rate_limit"),
		Provider: ProviderConfig{
			Endpoint:    v.GetString("provider.endpoint"),
			Model:       v.GetString("provider.model"),
			Timeout:     v.GetDuration("provider.timeout"),
			Concurrency: concurrency,
		},
	}
}

// parseOrigins splits a comma-separated list; "*" (default) allows any origin.
func parseOrigins(raw string) []string {
	origins := []string{}
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
