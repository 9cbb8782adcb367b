package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	t.Run("Invalid Connection", func(t *testing.T) {
		cfg := Config{
			Driver:         DriverMySQL,
			Host:           "localhost",
			Port:           9999, // Unused port
			User:           "root",
			Password:       "wrongpassword",
			Name:           "bd_dados",
			TimeoutSeconds: 1,
		}

		db, err := Connect(cfg)
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("Unsupported Driver", func(t *testing.T) {
		db, err := Connect(Config{Driver: "mssql"})
		assert.ErrorContains(t, err, "unsupported database driver")
		assert.Nil(t, db)
	})

	t.Run("SQLite In Memory", func(t *testing.T) {
		db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
		require.NoError(t, err)
		assert.Equal(t, "sqlite", db.Dialector.Name())
	})
}

func TestMigrate(t *testing.T) {
	type sample struct {
		ID   uint `gorm:"primaryKey"`
		Name string
	}

	db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	require.NoError(t, Migrate(db, &sample{}))
	assert.True(t, db.Migrator().HasTable(&sample{}))
}

func TestConfig_IsValidDriver(t *testing.T) {
	for _, driver := range []string{DriverMySQL, DriverPostgres, DriverSQLite} {
		assert.True(t, Config{Driver: driver}.IsValidDriver(), driver)
	}
	assert.False(t, Config{Driver: "oracle"}.IsValidDriver())
	assert.False(t, Config{}.IsValidDriver())
}
