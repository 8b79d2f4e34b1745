package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.Port)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "", cfg.RedisURL)
	assert.Equal(t, defaultCacheTTL, cfg.Cache.TTL)

	dsn, err := mysql.ParseDSN(cfg.DSN)
	require.NoError(t, err)
	assert.Equal(t, "root", dsn.User)
	assert.Equal(t, "password", dsn.Passwd)
	assert.Equal(t, "127.0.0.1:3306", dsn.Addr)
	assert.Equal(t, "site_content", dsn.DBName)
	assert.True(t, dsn.ParseTime)
	assert.Equal(t, "Local", dsn.Loc.String())
	assert.Equal(t, "utf8mb4", dsn.Params["charset"])
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse([]byte(`
port: 8080
env: production
jwt_secret: s3cret
site:
  title: Learn
  base_url: https://learn.example.com/
redis:
  host: cache
  db: 2
assets:
  public_base_url: https://cdn.example.com/assets/
cache:
  ttl: 1m
`))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, "https://learn.example.com", cfg.Site.BaseURL)
	assert.Equal(t, "redis://cache:6379/2", cfg.RedisURL)
	assert.Equal(t, "https://cdn.example.com/assets", cfg.Assets.PublicBaseURL)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, defaultPresignTTL, cfg.Assets.S3.PresignTTL)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("unknown_key: 1\n"))
	require.Error(t, err)
}

func TestParseRejectsMalformedDSN(t *testing.T) {
	_, err := Parse([]byte("database:\n  dsn: not a dsn\n"))
	require.Error(t, err)

	cfg, err := Parse([]byte("database:\n  dsn: app:pw@tcp(db:3306)/content?parseTime=true\n"))
	require.NoError(t, err)
	assert.Equal(t, "app:pw@tcp(db:3306)/content?parseTime=true", cfg.DSN)
}

func TestParseRequiresSecretInProduction(t *testing.T) {
	_, err := Parse([]byte("env: production\n"))
	require.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("port: 4000\n"), 0o644))

	t.Setenv("SITE_PORT", "5000")
	t.Setenv("SITE_REDIS_URL", "localhost:6380")
	t.Setenv("SITE_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "redis://localhost:6380", cfg.RedisURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}
