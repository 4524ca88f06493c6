package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "DB_DRIVER", "DB_PATH", "PROPAGATE_NUMERO_PROVENIENZA", "WORKFLOW_RATE_LIMIT", "ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "db/catasto.db", cfg.DBPath)
	assert.False(t, cfg.PropagateNumeroProvenienza)
	assert.Equal(t, 60, cfg.WorkflowRateLimit)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://catasto:secret@db:5432/catasto")
	t.Setenv("PROPAGATE_NUMERO_PROVENIENZA", "yes")
	t.Setenv("WORKFLOW_RATE_LIMIT", "-3")
	t.Setenv("IMPORT_MAX_ROWS", "250")
	t.Setenv("ALLOWED_ORIGINS", "https://archivio.example,https://catasto.example")

	cfg := Load()
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.True(t, cfg.PropagateNumeroProvenienza)
	assert.Equal(t, 60, cfg.WorkflowRateLimit)
	assert.Equal(t, 250, cfg.ImportMaxRows)
	assert.Len(t, cfg.AllowedOrigins, 2)
	assert.Equal(t, "postgres://***@db:5432/catasto", cfg.DSNForLog())
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("FLAG", "maybe")
	assert.True(t, getEnvBool("FLAG", true))
	t.Setenv("FLAG", "OFF")
	assert.False(t, getEnvBool("FLAG", true))
}

func TestDSNForLog(t *testing.T) {
	assert.Equal(t, "db/catasto.db", (&Config{DBDriver: DriverSQLite, DBPath: "db/catasto.db"}).DSNForLog())
	assert.Equal(t, "libsql://catasto.turso.io", (&Config{DBDriver: DriverLibSQL, TursoDatabaseURL: "libsql://catasto.turso.io", TursoAuthToken: "tok"}).DSNForLog())
	assert.Equal(t, "postgres", (&Config{DBDriver: DriverPostgres, DatabaseURL: "host=db"}).DSNForLog())
}
