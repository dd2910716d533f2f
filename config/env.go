package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppName   string
	Env       string
	Port      string
	RateLimit string
	SeedDB    bool
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (d DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	AdminUsername string
	AdminPassword string

	// Bypass skips the admin gate entirely. It can only be enabled at
	// startup via AUTH_BYPASS and is refused when APP_ENV=production.
	Bypass bool
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	env := getEnv("APP_ENV", "development")

	tokenTTLHours, _ := strconv.Atoi(getEnv("AUTH_TOKEN_TTL_HOURS", "24"))
	seedDB, _ := strconv.ParseBool(getEnv("SEED_DB", "false"))

	bypass := false
	if env != "production" {
		bypass, _ = strconv.ParseBool(getEnv("AUTH_BYPASS", "false"))
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	return Config{
		AppName:   getEnv("APP_NAME", "paygrid"),
		Env:       env,
		Port:      getEnv("APP_PORT", "8080"),
		RateLimit: getEnv("RATE_LIMIT", "60-M"),
		SeedDB:    seedDB,
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "paygrid"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("AUTH_JWT_SECRET", "dev-secret-change-me"),
			TokenTTL:      time.Duration(tokenTTLHours) * time.Hour,
			AdminUsername: getEnv("ADMIN_USERNAME", ""),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
			Bypass:        bypass,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
