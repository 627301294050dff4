package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Auth     AuthConfig
	Limits   LimitsConfig
	Provider ProviderConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

// DataConfig locates the single-process data directory: the flat-file
// credential document and the embedded SQLite store live side by side.
type DataConfig struct {
	Dir             string
	UsersFile       string
	CacheDB         string
	CleanupInterval time.Duration
}

type AuthConfig struct {
	JWTSecret     string
	SessionExpiry time.Duration
	// FailClosed surfaces credential/limiter storage errors instead of
	// degrading to "no user" / "quota available". Off by default to keep
	// the bootstrap flow available on a fresh data directory.
	FailClosed bool
}

type LimitsConfig struct {
	DailySearches int
}

type ProviderConfig struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int

	QuoteTTL    time.Duration
	ProfileTTL  time.Duration
	KPIsTTL     time.Duration
	HistoryTTL  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	dataDir := getEnv("DATA_DIR", "data")

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Data: DataConfig{
			Dir:             dataDir,
			UsersFile:       getEnv("USERS_FILE", filepath.Join(dataDir, "users.json")),
			CacheDB:         getEnv("CACHE_DB", filepath.Join(dataDir, "app.sqlite3")),
			CleanupInterval: getEnvAsDuration("CLEANUP_INTERVAL", 1*time.Hour),
		},
		Auth: AuthConfig{
			JWTSecret:     jwtSecret,
			SessionExpiry: getEnvAsDuration("SESSION_EXPIRY", 12*time.Hour),
			FailClosed:    getEnvAsBool("AUTH_FAIL_CLOSED", false),
		},
		Limits: LimitsConfig{
			DailySearches: getEnvAsInt("DAILY_SEARCH_LIMIT", 3),
		},
		Provider: ProviderConfig{
			BaseURL:     getEnv("PROVIDER_BASE_URL", "https://query1.finance.yahoo.com"),
			Timeout:     getEnvAsDuration("PROVIDER_TIMEOUT", 10*time.Second),
			MaxAttempts: getEnvAsInt("PROVIDER_MAX_ATTEMPTS", 4),
			QuoteTTL:    getEnvAsDuration("QUOTE_TTL", 5*time.Minute),
			ProfileTTL:  getEnvAsDuration("PROFILE_TTL", 30*24*time.Hour),
			KPIsTTL:     getEnvAsDuration("DIVIDEND_KPIS_TTL", 24*time.Hour),
			HistoryTTL:  getEnvAsDuration("HISTORY_TTL", 30*24*time.Hour),
		},
	}

	if cfg.Limits.DailySearches < 0 {
		return nil, fmt.Errorf("DAILY_SEARCH_LIMIT cannot be negative")
	}

	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16 // Development minimum
	if env == "production" {
		minLength = 32 // Production requires stronger secret (256 bits)
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{} // Default to no origins in production
		}
		origins := strings.Split(originsStr, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		return origins
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
