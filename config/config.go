package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DatabaseURL     string
	AllowedOrigins  []string
	LogLevel        string
	ConnectAttempts int
	MaxOpenConns    int
}

// Load reads a .env file if one exists and then the process environment.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := Config{
		Port:           env("PORT", "8080"),
		DatabaseURL:    databaseURL(),
		AllowedOrigins: splitList(env("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:       env("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.ConnectAttempts, err = envInt("DB_CONNECT_ATTEMPTS", 1); err != nil {
		return Config{}, err
	}
	if cfg.MaxOpenConns, err = envInt("DB_MAX_OPEN_CONNS", 10); err != nil {
		return Config{}, err
	}
	if cfg.ConnectAttempts < 1 {
		return Config{}, fmt.Errorf("DB_CONNECT_ATTEMPTS must be at least 1, got %d", cfg.ConnectAttempts)
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("no database configured: set DATABASE_URL or host/dbname")
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// databaseURL prefers DATABASE_URL and otherwise assembles a postgres URL
// from the user/password/host/port/dbname variables.
func databaseURL() string {
	if u := strings.TrimSpace(os.Getenv("DATABASE_URL")); u != "" {
		return u
	}

	dbHost := strings.TrimSpace(os.Getenv("host"))
	dbName := strings.TrimSpace(os.Getenv("dbname"))
	if dbHost == "" || dbName == "" {
		return ""
	}
	dbPort := env("port", "5432")

	u := url.URL{
		Scheme:   "postgres",
		Host:     dbHost + ":" + dbPort,
		Path:     "/" + dbName,
		RawQuery: "sslmode=" + url.QueryEscape(env("DB_SSLMODE", "require")),
	}
	if dbUser := strings.TrimSpace(os.Getenv("user")); dbUser != "" {
		u.User = url.UserPassword(dbUser, strings.TrimSpace(os.Getenv("password")))
	}
	return u.String()
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
