package configs

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            int
	SecretKey       string
	DBHost          string
	DBPort          int
	DBUser          string
	DBPassword      string
	DBName          string
	DBNameTest      string
	RedisHost       string
	RedisPort       int
	UploadDir       string
	UploadDirLegacy string
}

func LoadConfig() Config {
	// Load .env; real environment variables win when both are present.
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GO_ENV") != "test" {
			log.Println("No .env file found, using default values")
		}
	}

	return Config{
		Port:       envInt("PORT", 3004),
		SecretKey:  envString("SECRET_KEY", "dev-secret"),
		DBHost:     envString("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBNameTest: os.Getenv("DB_NAME_TEST"),
		RedisHost:  envString("REDIS_HOST", "localhost"),
		RedisPort:  envInt("REDIS_PORT", 6379),
		UploadDir:  envString("UPLOAD_DIR", "uploads"),
		// Reads still probe the pre-rework upload location so attachments
		// stored under the old layout keep resolving.
		UploadDirLegacy: envString("UPLOAD_DIR_LEGACY", "static/uploads"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
