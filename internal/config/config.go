package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by CACHEFLEET_ENV (or .env by default),
// then the corresponding .secret sidecar if it exists. All config is flat env
// vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("CACHEFLEET_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func JWTSecret() string {
	return os.Getenv("JWT_SECRET")
}

// JWTIssuer defaults to "cachefleet" if not set.
func JWTIssuer() string {
	iss := os.Getenv("JWT_ISSUER")
	if iss == "" {
		return "cachefleet"
	}
	return iss
}

// JWTExpiry returns the bearer-token lifetime. Defaults to 60 minutes.
func JWTExpiry() time.Duration {
	mins, err := strconv.Atoi(os.Getenv("JWT_EXPIRY_MINUTES"))
	if err != nil || mins <= 0 {
		return 60 * time.Minute
	}
	return time.Duration(mins) * time.Minute
}

// CORSOrigins returns the allowed origins for the admin UIs.
// Defaults to "*" if not set.
func CORSOrigins() []string {
	raw := os.Getenv("CORS_ORIGINS")
	if raw == "" {
		return []string{"*"}
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

// AgentTimeout is the HTTP client timeout for outbound calls to agents.
// Defaults to 10 seconds.
func AgentTimeout() time.Duration {
	secs, err := strconv.Atoi(os.Getenv("AGENT_TIMEOUT_SECONDS"))
	if err != nil || secs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(secs) * time.Second
}

// AdminEmail is the bootstrap admin account created at startup when no user
// with this email exists. Empty disables bootstrap.
func AdminEmail() string {
	return os.Getenv("ADMIN_EMAIL")
}

func AdminPassword() string {
	return os.Getenv("ADMIN_PASSWORD")
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

func MigrationsPath() string {
	p := os.Getenv("MIGRATIONS_PATH")
	if p == "" {
		return "migrations"
	}
	return p
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
