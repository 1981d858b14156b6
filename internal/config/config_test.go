package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("PORT", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, 30*time.Second, cfg.StatsCacheTTL)
	assert.EqualValues(t, 20, cfg.MaxUploadMB)
	assert.Equal(t, 10, cfg.SearchLimit)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("STATS_CACHE_TTL", "5m")
	t.Setenv("SEARCH_LIMIT", "25")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "file:test.db", cfg.DatabaseURL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 5*time.Minute, cfg.StatsCacheTTL)
	assert.Equal(t, 25, cfg.SearchLimit)
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("PORT", "")
	path := filepath.Join(t.TempDir(), "reconciler.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7070\"\nlog_level: debug\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := AppConfig{DBDriver: DriverSQLite, DatabaseURL: "file::memory:", MaxUploadMB: 1, SearchLimit: 1}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.DBDriver = "mysql"
	assert.Error(t, bad.Validate())

	bad = valid
	bad.DatabaseURL = " "
	assert.Error(t, bad.Validate())

	bad = valid
	bad.SearchLimit = 0
	assert.Error(t, bad.Validate())

	bad = valid
	bad.MaxUploadMB = -1
	assert.Error(t, bad.Validate())
}

func TestInitDBSQLite(t *testing.T) {
	cfg := &AppConfig{DBDriver: DriverSQLite, DatabaseURL: "file:initdb?mode=memory&cache=shared", MaxUploadMB: 1, SearchLimit: 1}
	db, err := InitDB(cfg)
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasTable("matches"))
	assert.True(t, db.Migrator().HasTable("bank_records"))
	assert.True(t, db.Migrator().HasTable("match_audit_logs"))
}
