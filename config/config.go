package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const DefaultBackendURL = "http://127.0.0.1:18009/beta_testers/"

type Config struct {
	Port     string
	GinMode  string
	LogLevel string
	// Beta tester backend
	BackendURL            string
	BackendTimeoutSeconds int // 0 = no client timeout
	// Form behaviour
	DefaultLanguage    string
	CelebrationSeconds int
	// Submission error policy: "status" or "legacy"
	SubmitErrorPolicy       string
	SubmitDuplicateStatuses []int
	// Sessions
	SessionSecret       string
	SessionTTLMinutes   int
	SessionCookieSecure bool
	// CORS
	AllowedOrigins []string
	// SMTP signup notifications (optional)
	SMTPHost       string
	SMTPPort       string
	SMTPUsername   string
	SMTPPassword   string
	SignupNotifyTo string
	// Redis (optional; in-memory fallback when empty)
	RedisURL      string
	RedisPassword string
	// Rate Limiting Configuration
	RateLimitWindowSeconds   int
	RateLimitSubmitThreshold int
	RateLimitGlobalThreshold int
}

func LoadConfig() (*Config, error) {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		GinMode:  getEnv("GIN_MODE", "debug"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		BackendURL:            getEnv("BACKEND_URL", DefaultBackendURL),
		BackendTimeoutSeconds: getEnvInt("BACKEND_TIMEOUT_SECONDS", 0),

		DefaultLanguage:    getEnv("DEFAULT_LANGUAGE", "zh"),
		CelebrationSeconds: getEnvInt("CELEBRATION_SECONDS", 5),

		SubmitErrorPolicy:       strings.ToLower(getEnv("SUBMIT_ERROR_POLICY", "status")),
		SubmitDuplicateStatuses: getEnvIntList("SUBMIT_DUPLICATE_STATUSES", []int{400, 409}),

		SessionSecret:       getEnv("SESSION_SECRET", ""),
		SessionTTLMinutes:   getEnvInt("SESSION_TTL_MINUTES", 60),
		SessionCookieSecure: getEnvBool("SESSION_COOKIE_SECURE", false),

		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),

		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnv("SMTP_PORT", "587"),
		SMTPUsername:   getEnv("SMTP_USERNAME", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		SignupNotifyTo: getEnv("SIGNUP_NOTIFY_TO", ""),

		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		RateLimitWindowSeconds:   getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitSubmitThreshold: getEnvInt("RATE_LIMIT_SUBMIT_THRESHOLD", 10),
		RateLimitGlobalThreshold: getEnvInt("RATE_LIMIT_GLOBAL_THRESHOLD", 300),
	}

	if cfg.SessionSecret == "" {
		log.Println("WARNING: SESSION_SECRET is missing. A random secret is used and sessions will not survive restarts.")
	}
	if cfg.RedisURL == "" {
		log.Println("WARNING: REDIS_URL not configured. Form sessions and rate limits stay in memory.")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping blanks.
func getEnvList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvIntList is getEnvList for integers; any bad entry yields fallback.
func getEnvIntList(key string, fallback []int) []int {
	parts := getEnvList(key, nil)
	if parts == nil {
		return fallback
	}
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return fallback
		}
		out = append(out, n)
	}
	return out
}
