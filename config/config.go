package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type DatabaseConfig struct {
	Driver     string // "sqlite" or "postgres"
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

type Config struct {
	Port           string
	JWTSecret      string
	ModelServerURL string
	AllowedOrigins []string
	Database       DatabaseConfig
}

// Load reads configuration from the environment, pulling in a .env file
// first when one is present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("PORT", "5001"),
		JWTSecret:      getEnv("JWT_SECRET_KEY", "dev-secret-change-me"),
		ModelServerURL: getEnv("MODEL_SERVER_URL", "http://localhost:8501"),
		AllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "sqlite"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", "root"),
			Name:       getEnv("DB_NAME", "asl_recognition"),
			SSLMode:    getEnv("DB_SSL_MODE", "disable"),
			SQLitePath: getEnv("DB_SQLITE_PATH", "asl.db"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
