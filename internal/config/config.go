package config

import (
	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	// Server
	Port int    `mapstructure:"PORT"`
	Env  string `mapstructure:"APP_ENV"` // development | production

	// Store
	StorePath string `mapstructure:"STORE_PATH"`

	// Auth
	JWTSecret          string `mapstructure:"JWT_SECRET"`
	JWTExpirationHours int    `mapstructure:"JWT_EXPIRATION_HOURS"`

	// Sync export. Empty SYNC_REMOTE_URL keeps the simulated remote: the
	// export payload is logged instead of sent.
	SyncRemoteURL       string `mapstructure:"SYNC_REMOTE_URL"`
	SyncIntervalSeconds int    `mapstructure:"SYNC_INTERVAL_SECONDS"`
	SyncMaxRetries      int    `mapstructure:"SYNC_MAX_RETRIES"`

	// Export circuit breaker tuning.
	CBFailureThreshold int `mapstructure:"SYNC_CB_FAILURE_THRESHOLD"`
	CBSuccessThreshold int `mapstructure:"SYNC_CB_SUCCESS_THRESHOLD"`
	CBCooldownSeconds  int `mapstructure:"SYNC_CB_COOLDOWN_SECONDS"`

	// CORS origin echoed on every response; "*" for local development.
	CORSAllowedOrigin string `mapstructure:"CORS_ALLOWED_ORIGIN"`

	// SeedDefaults creates the demo branch and accounts on an empty store.
	SeedDefaults bool `mapstructure:"SEED_DEFAULTS"`
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Sensible defaults for development
	viper.SetDefault("PORT", 8000)
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("STORE_PATH", "tillpos.db")
	viper.SetDefault("JWT_SECRET", "dev-secret-change-me")
	viper.SetDefault("JWT_EXPIRATION_HOURS", 8)
	viper.SetDefault("SYNC_REMOTE_URL", "")
	viper.SetDefault("SYNC_INTERVAL_SECONDS", 300)
	viper.SetDefault("SYNC_MAX_RETRIES", 3)
	viper.SetDefault("SYNC_CB_FAILURE_THRESHOLD", 5)
	viper.SetDefault("SYNC_CB_SUCCESS_THRESHOLD", 2)
	viper.SetDefault("SYNC_CB_COOLDOWN_SECONDS", 60)
	viper.SetDefault("CORS_ALLOWED_ORIGIN", "*")
	viper.SetDefault("SEED_DEFAULTS", true)

	// Optional .env file for local development — does not fail if missing
	_ = viper.ReadInConfig()

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
