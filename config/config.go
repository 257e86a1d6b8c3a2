package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Bidding  BiddingConfig
	Media    MediaConfig
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	URL      string
	DraftTTL time.Duration
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

// BiddingConfig holds the bid lifecycle tunables. The window is how long a
// bid stays acceptable after submission; MinETAMinutes is the floor on a
// contractor's promised arrival time.
type BiddingConfig struct {
	Window        time.Duration
	MinETAMinutes int
	SweepInterval time.Duration
}

type MediaConfig struct {
	CloudinaryURL string
}

var AppConfig *Config

func Load() {
	AppConfig = &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DB_URL", ""),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			DraftTTL: time.Duration(getEnvAsInt("DRAFT_TTL_HOURS", 168)) * time.Hour,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "your-super-secret-jwt-key-change-this-in-production"),
			ExpiryHours: getEnvAsInt("JWT_EXPIRY_HOURS", 24),
		},
		Bidding: BiddingConfig{
			Window:        time.Duration(getEnvAsInt("BIDDING_WINDOW_MINUTES", 30)) * time.Minute,
			MinETAMinutes: getEnvAsInt("MIN_BID_ETA_MINUTES", 15),
			SweepInterval: time.Duration(getEnvAsInt("BID_SWEEP_SECONDS", 30)) * time.Second,
		},
		Media: MediaConfig{
			CloudinaryURL: getEnv("CLOUDINARY_URL", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
