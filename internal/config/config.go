package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissingJWTSecret is returned when JWT_SECRET is not set.
var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBMigrate  bool

	RedisURL string

	ServerPort string

	JWTSecret string

	AccessTokenMaxAge int
	// SessionMaxAge bounds the refresh token, i.e. how long a login lasts.
	SessionMaxAge int

	PerPage int

	LogLevel slog.Level
}

// UseMemoryStore reports whether no database is configured.
func (c *Config) UseMemoryStore() bool {
	return c.DBHost == ""
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, relying on environment variables", "component", "Config")
	}

	accessTokenMaxAge, err := strconv.Atoi(os.Getenv("ACCESS_TOKEN_MAX_AGE"))
	if err != nil || accessTokenMaxAge <= 0 {
		accessTokenMaxAge = 900
	}

	sessionMaxAge, err := strconv.Atoi(os.Getenv("SESSION_MAX_AGE"))
	if err != nil || sessionMaxAge <= 0 {
		sessionMaxAge = 36000
	}

	perPage, err := strconv.Atoi(os.Getenv("PER_PAGE"))
	if err != nil || perPage <= 0 {
		perPage = 30
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "require"
	}

	migrate := true
	if v := os.Getenv("DB_MIGRATE"); v != "" {
		migrate, err = strconv.ParseBool(v)
		if err != nil {
			return nil, err
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, ErrMissingJWTSecret
	}

	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     dbPort,
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  sslMode,
		DBMigrate:  migrate,

		RedisURL: os.Getenv("REDIS_URL"),

		ServerPort: serverPort,

		JWTSecret: jwtSecret,

		AccessTokenMaxAge: accessTokenMaxAge,
		SessionMaxAge:     sessionMaxAge,

		PerPage: perPage,

		LogLevel: parseLogLevel(os.Getenv("LOG_LEVEL")),
	}, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
