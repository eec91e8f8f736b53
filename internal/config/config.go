package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Seed      SeedConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig carries the signing material for access tokens. Secret is the
// active signing key; PreviousSecrets are still accepted for verification so
// the key can be rotated without invalidating outstanding tokens.
type JWTConfig struct {
	Secret          string
	PreviousSecrets []string
	AccessTokenTTL  time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

// SeedConfig controls the startup seeder that provisions the default
// accounts and the public sample templates.
type SeedConfig struct {
	Enabled         bool
	AdminPassword   string
	CreatorPassword string
	UserPassword    string
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "stencild")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("JWT_ACCESS_TOKEN_TTL", 1440)
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	viper.SetDefault("SEED_ENABLED", false)
	viper.SetDefault("SEED_ADMIN_PASSWORD", "admin123")
	viper.SetDefault("SEED_CREATOR_PASSWORD", "creator123")
	viper.SetDefault("SEED_USER_PASSWORD", "user123")

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		JWT: JWTConfig{
			Secret:          os.Getenv("JWT_SECRET"),
			PreviousSecrets: splitSecrets(os.Getenv("JWT_PREVIOUS_SECRETS")),
			// validity window in minutes, default 24 hours
			AccessTokenTTL: time.Duration(viper.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Seed: SeedConfig{
			Enabled:         viper.GetBool("SEED_ENABLED"),
			AdminPassword:   viper.GetString("SEED_ADMIN_PASSWORD"),
			CreatorPassword: viper.GetString("SEED_CREATOR_PASSWORD"),
			UserPassword:    viper.GetString("SEED_USER_PASSWORD"),
		},
	}

	// Basic validation
	if cfg.JWT.Secret == "" {
		if cfg.Server.Environment != "development" {
			log.Fatalf("JWT_SECRET is required outside development")
		}
		log.Println("WARNING: JWT_SECRET is not set; using an insecure development key")
		cfg.JWT.Secret = "stencild-dev-signing-key-do-not-use-in-prod"
	}

	return cfg, nil
}

// splitSecrets parses the comma-separated JWT_PREVIOUS_SECRETS list used to
// keep rotated keys valid for verification.
func splitSecrets(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
