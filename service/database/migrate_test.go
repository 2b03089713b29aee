package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-quality-service/service/config"
	"sales-quality-service/service/models"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", Name: "file::memory:"})
	require.NoError(t, err)

	tables := Tables{Source: "orders_raw", Cleaned: "orders_clean"}
	require.NoError(t, AutoMigrate(db, tables))

	assert.True(t, db.Migrator().HasTable("orders_raw"))
	assert.True(t, db.Migrator().HasTable("orders_clean"))
	assert.True(t, db.Migrator().HasTable(&models.QualityRun{}))
	assert.True(t, db.Migrator().HasColumn("orders_clean", "run_id"))
	assert.False(t, db.Migrator().HasColumn("orders_raw", "run_id"))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}
