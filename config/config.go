package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port   string
	JWTKey string

	DBDriver       string // postgres, mysql, sqlite
	DBHost         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBPort         string
	DBDSN          string // full DSN, overrides the parts above
	DBMaxOpenConns int
	DBMaxIdleConns int

	CourseAPIURL        string // when set, lessons come from the course service
	CourseAPIToken      string
	CourseAPITimeoutSec int

	ReconcileCron    string
	ReconcileWorkers int
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = FromEnv()

	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.DBDriver == "sqlite" {
		log.Printf("Warning: Using sqlite database %q. Use postgres outside local development.", AppConfig.DBName)
	}
}

// FromEnv builds a Config from the current environment without touching .env files.
func FromEnv() *Config {
	return &Config{
		Port:   getEnv("PORT", "3000"),
		JWTKey: getEnv("JWT_SECRET_KEY", "defaultSecret"),

		DBDriver:       getEnv("DB_DRIVER", "postgres"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "coursehub"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBDSN:          getEnv("DB_DSN", ""),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),

		CourseAPIURL:        getEnv("COURSE_API_URL", ""),
		CourseAPIToken:      getEnv("COURSE_API_TOKEN", ""),
		CourseAPITimeoutSec: getEnvInt("COURSE_API_TIMEOUT_SEC", 5),

		ReconcileCron:    getEnv("RECONCILE_CRON", "30 2 * * *"),
		ReconcileWorkers: getEnvInt("RECONCILE_WORKERS", 4),
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
