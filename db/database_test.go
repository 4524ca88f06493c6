package db

import (
	"testing"

	"catasto_app_go/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectorFor(t *testing.T) {
	t.Run("SQLiteDefault", func(t *testing.T) {
		d, single, err := dialectorFor(&config.Config{DBDriver: config.DriverSQLite, DBPath: "test.db"})
		require.NoError(t, err)
		assert.Equal(t, "sqlite", d.Name())
		assert.True(t, single)
	})

	t.Run("PostgresRequiresURL", func(t *testing.T) {
		_, _, err := dialectorFor(&config.Config{DBDriver: config.DriverPostgres})
		assert.Error(t, err)

		d, single, err := dialectorFor(&config.Config{DBDriver: config.DriverPostgres, DatabaseURL: "postgres://u:p@localhost/catasto"})
		require.NoError(t, err)
		assert.Equal(t, "postgres", d.Name())
		assert.False(t, single)
	})

	t.Run("LibSQLRequiresURL", func(t *testing.T) {
		_, _, err := dialectorFor(&config.Config{DBDriver: config.DriverLibSQL})
		assert.Error(t, err)

		d, single, err := dialectorFor(&config.Config{DBDriver: config.DriverLibSQL, TursoDatabaseURL: "libsql://catasto.turso.io", TursoAuthToken: "tok"})
		require.NoError(t, err)
		assert.Equal(t, "sqlite", d.Name())
		assert.True(t, single)
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		_, _, err := dialectorFor(&config.Config{DBDriver: "oracle"})
		assert.Error(t, err)
	})
}

func TestOpenMemoryIsolated(t *testing.T) {
	type probe struct {
		ID   uint
		Name string
	}

	first, err := OpenMemory()
	require.NoError(t, err)
	second, err := OpenMemory()
	require.NoError(t, err)

	require.NoError(t, first.AutoMigrate(&probe{}))
	require.NoError(t, first.Create(&probe{Name: "a"}).Error)

	assert.False(t, second.Migrator().HasTable(&probe{}))
}

func TestAutoMigrateRequiresInitialize(t *testing.T) {
	saved := DB
	DB = nil
	defer func() { DB = saved }()

	assert.Error(t, AutoMigrate(&struct{ ID uint }{}))
	assert.NoError(t, Close())
}
