package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverLibSQL   = "libsql"
)

type Config struct {
	ServerPort  string
	Environment string
	// Database
	DBDriver         string
	DBPath           string
	DatabaseURL      string
	TursoDatabaseURL string
	TursoAuthToken   string
	// Logging
	LogLevel  string
	LogFormat string
	// Registry behaviour
	PropagateNumeroProvenienza bool // When true, derived partite record the origin's numero as provenienza
	WorkflowRateLimit          int  // Workflow requests per minute per actor
	ImportMaxRows              int
	// Other
	AllowedOrigins []string
}

func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		ServerPort:                 getEnv("SERVER_PORT", "8080"),
		Environment:                getEnv("ENVIRONMENT", "development"),
		DBDriver:                   strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		DBPath:                     getEnv("DB_PATH", "db/catasto.db"),
		DatabaseURL:                getEnv("DATABASE_URL", ""),
		TursoDatabaseURL:           getEnv("TURSO_DATABASE_URL", ""),
		TursoAuthToken:             getEnv("TURSO_AUTH_TOKEN", ""),
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
		LogFormat:                  getEnv("LOG_FORMAT", "json"),
		PropagateNumeroProvenienza: getEnvBool("PROPAGATE_NUMERO_PROVENIENZA", false),
		WorkflowRateLimit:          getEnvInt("WORKFLOW_RATE_LIMIT", 60),
		ImportMaxRows:              getEnvInt("IMPORT_MAX_ROWS", 5000),
		AllowedOrigins:             strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Printf("Using default value for %s: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept common boolean representations
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("Invalid value for %s: %q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

// DSNForLog returns the active connection target with credentials stripped
func (c *Config) DSNForLog() string {
	switch c.DBDriver {
	case DriverPostgres:
		if i := strings.Index(c.DatabaseURL, "@"); i >= 0 {
			return "postgres://***" + c.DatabaseURL[i:]
		}
		return "postgres"
	case DriverLibSQL:
		return c.TursoDatabaseURL
	default:
		return c.DBPath
	}
}
