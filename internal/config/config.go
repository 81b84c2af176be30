package config

import (
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

const defaultExpiryHorizonHours = 72

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	// A helper function to get a required env var. It will fail if the env var is not set.
	getEnv := func(key string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		log.Fatalf("Error: Required environment variable %s is not set.", key)
		return "" // This line is never reached
	}

	horizonHours := defaultExpiryHorizonHours
	if v, ok := os.LookupEnv("EXPIRY_HORIZON_HOURS"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			log.Warn("Invalid EXPIRY_HORIZON_HOURS, using default", "value", v, "default", defaultExpiryHorizonHours)
		} else {
			horizonHours = parsed
		}
	}

	cfg := Config{
		DBName:        getEnv("DB_NAME"),
		MigrationsDir: "./migrations",
		Slack: SlackConfig{
			Token:         getEnv("SLACK_BOT_TOKEN"),
			ChannelID:     getEnv("SLACK_CHANNEL_ID"),
			SigningSecret: getEnv("SLACK_SIGNING_SECRET"),
		},
		Port: getEnv("PORT"),
		Turso: TursoConfig{
			PrimaryURL: getEnv("TURSO_PRIMARY_URL"),
			AuthToken:  getEnv("TURSO_AUTH_TOKEN"),
		},
		ProjectID:     getEnv("GCP_PROJECT"),
		ExpiryHorizon: time.Duration(horizonHours) * time.Hour,
	}
	return cfg
}
