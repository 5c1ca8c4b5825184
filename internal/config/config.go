package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the runtime configuration loaded from environment variables.
// Call Load once at startup, after godotenv has populated the environment.
type Config struct {
	Port     string
	LogLevel string
	LogFile  string

	// Redis connection
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// JWT
	JWTSecret []byte
	JWTExpiry time.Duration

	// Ranking window. The daily dedup/leaderboard windows expire at local
	// midnight in this zone, not in the server's local time.
	RankingTimezone string

	// Feather economy
	FeatherPostReward int
	FeatherCommentCost int
}

// Load reads configuration from the environment. Required variables cause an
// error so the server fails fast instead of running half-configured.
func Load() (*Config, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	}

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "8080"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:            getEnvOrDefault("LOG_FILE", "server.log"),
		RedisHost:          getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:          getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		JWTSecret:          []byte(jwtSecret),
		JWTExpiry:          30 * time.Minute,
		RankingTimezone:    getEnvOrDefault("RANKING_TIMEZONE", "Asia/Seoul"),
		FeatherPostReward:  getEnvIntOrDefault("FEATHER_POST_REWARD", 1),
		FeatherCommentCost: getEnvIntOrDefault("FEATHER_COMMENT_COST", 1),
	}

	return cfg, nil
}

// RankingLocation resolves the configured ranking timezone.
func (c *Config) RankingLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.RankingTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid RANKING_TIMEZONE %q: %w", c.RankingTimezone, err)
	}
	return loc, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
