package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	Server   ServerConfig
	CORS     CORSConfig
	Intake   IntakeConfig
	Cache    CacheConfig
	Log      LogConfig
	SeedFile string
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Path     string
}

type JWTConfig struct {
	AccessSecret       string
	RefreshSecret      string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// IntakeConfig controls code reservations and edit rules of the intake form
type IntakeConfig struct {
	ReservationTTL             time.Duration
	ReservationSweepInterval   time.Duration
	LockPersistedSamplesNumber bool
}

type CacheConfig struct {
	CatalogTTL  time.Duration
	CatalogSize int
}

type LogConfig struct {
	Level string
}

func LoadConfig() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "mysql"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "lab_sample_intake"),
			Path:     getEnv("DB_PATH", "lab_sample_intake.db"),
		},
		JWT: JWTConfig{
			AccessSecret:       getEnv("JWT_ACCESS_SECRET", "your-access-secret-key"),
			RefreshSecret:      getEnv("JWT_REFRESH_SECRET", "your-refresh-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("ACCESS_TOKEN_EXPIRY", "8h"), 8*time.Hour),
			RefreshTokenExpiry: parseDuration(getEnv("REFRESH_TOKEN_EXPIRY", "168h"), 168*time.Hour),
		},
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		},
		Intake: IntakeConfig{
			ReservationTTL:             parseDuration(getEnv("RESERVATION_TTL", "2m"), 2*time.Minute),
			ReservationSweepInterval:   parseDuration(getEnv("RESERVATION_SWEEP_INTERVAL", "30s"), 30*time.Second),
			LockPersistedSamplesNumber: parseBool(getEnv("LOCK_PERSISTED_SAMPLES_NUMBER", "false")),
		},
		Cache: CacheConfig{
			CatalogTTL:  parseDuration(getEnv("CATALOG_CACHE_TTL", "5m"), 5*time.Minute),
			CatalogSize: parseInt(getEnv("CATALOG_CACHE_SIZE", "256"), 256),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		SeedFile: getEnv("SEED_FILE", "seed.yaml"),
	}

	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil || duration <= 0 {
		fmt.Printf("Warning: Invalid duration format '%s', using %s\n", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		fmt.Printf("Warning: Invalid integer '%s', using %d\n", s, fallback)
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		fmt.Printf("Warning: Invalid boolean '%s', using false\n", s)
		return false
	}
	return b
}

func parseOrigins(s string) []string {
	origins := []string{}
	for _, origin := range strings.Split(s, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
