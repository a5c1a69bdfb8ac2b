package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port    string
	AppMode string
	AppURL  string

	DBDriver   string // postgres, mysql, sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTKey    string
	SaltRound int

	EmailProvider string // smtp, sendgrid
	SMTPHost      string
	SMTPPort      string
	SMTPUser      string
	SMTPPassword  string
	EmailFrom     string
	EmailFromName string
	SendgridKey   string

	RedisURL string

	UploadDir   string
	MaxUploadMB int

	OTPCooldownSeconds int
	InviteTTLHours     int
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:    getEnv("PORT", "3000"),
		AppMode: getEnv("APP_MODE", "development"),
		AppURL:  getEnv("APP_URL", "http://localhost:3000"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "fillop"),

		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		EmailProvider: getEnv("EMAIL_PROVIDER", "smtp"),
		SMTPHost:      getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUser:      getEnv("SMTP_USER", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		EmailFrom:     getEnv("EMAIL_FROM", "no-reply@fillop.local"),
		EmailFromName: getEnv("EMAIL_FROM_NAME", "Fillop Learning"),
		SendgridKey:   getEnv("SENDGRID_API_KEY", ""),

		RedisURL: getEnv("REDIS_URL", ""),

		UploadDir:   getEnv("UPLOAD_DIR", "./public/uploads"),
		MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 20),

		OTPCooldownSeconds: getEnvInt("OTP_COOLDOWN_SECONDS", 60),
		InviteTTLHours:     getEnvInt("INVITE_TTL_HOURS", 72),
	}

	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.EmailProvider == "sendgrid" && AppConfig.SendgridKey == "" {
		log.Println("Warning: EMAIL_PROVIDER is sendgrid but SENDGRID_API_KEY is empty.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}
