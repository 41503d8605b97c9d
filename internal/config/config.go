package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all environment-driven settings for the server.
type Config struct {
	Port          string
	MongoURI      string
	MongoDB       string
	JWTSecret     string
	BotAPIKey     string
	BotUserID     string
	AllowedOrigin string
	LogLevel      string
	CronEnabled   bool
}

// LoadConfig reads configuration from a .env file (if present) and the
// process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "comy"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		BotAPIKey:     getEnv("BOT_API_KEY", ""),
		BotUserID:     getEnv("BOT_USER_ID", ""),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CronEnabled:   getEnv("CRON_ENABLED", "false") == "true",
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
