package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	full := writeTempJSON(t, dir, "full.json", map[string]any{
		"environment":                    "staging",
		"endpoint_addr_http":             ":8080",
		"endpoint_addr_grpc":             ":9090",
		"database_dsn":                   "postgres://db/incidents",
		"secret_key":                     "json-secret",
		"access_token_validity_duration": "2d",
		"cors_origin":                    "https://portal.example",
		"upload_dir":                     "/var/uploads",
		"max_upload_size":                1024,
		"max_body_size":                  4096,
		"storage_backend":                "s3",
		"s3_bucket":                      "evidence",
		"redis_addr":                     "redis:6379",
		"redis_db":                       2,
		"rate_limit_max":                 50,
		"rate_limit_window":              "1m",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"server", "-config", full}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "staging", cfg.Environment)
		assert.Equal(t, ":8080", cfg.EndpointAddrHTTP)
		assert.Equal(t, ":9090", cfg.EndpointAddrGRPC)
		assert.Equal(t, "postgres://db/incidents", cfg.DatabaseDSN)
		assert.Equal(t, "json-secret", cfg.SecretKey)
		assert.Equal(t, 48*time.Hour, cfg.AccessTokenValidityDuration)
		assert.Equal(t, "https://portal.example", cfg.CORSOrigin)
		assert.Equal(t, "/var/uploads", cfg.UploadDir)
		assert.Equal(t, int64(1024), cfg.MaxUploadSize)
		assert.Equal(t, int64(4096), cfg.MaxBodySize)
		assert.Equal(t, "s3", cfg.StorageBackend)
		assert.Equal(t, "evidence", cfg.S3Bucket)
		assert.Equal(t, "redis:6379", cfg.RedisAddr)
		assert.Equal(t, 2, cfg.RedisDB)
		assert.Equal(t, 50, cfg.RateLimitMax)
		assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	})

	t.Run("partial file keeps other fields", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"secret_key": "only-this"})
		os.Args = []string{"server", "-c", partial}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "only-this", cfg.SecretKey)
		assert.Equal(t, ":3001", cfg.EndpointAddrHTTP)
		assert.Equal(t, 7*24*time.Hour, cfg.AccessTokenValidityDuration)
	})

	t.Run("no config flag, no changes", func(t *testing.T) {
		os.Args = []string{"server"}

		cfg := &Config{SecretKey: "key", EndpointAddrHTTP: ":1"}
		parseJson(cfg)

		assert.Equal(t, "key", cfg.SecretKey)
		assert.Equal(t, ":1", cfg.EndpointAddrHTTP)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ not json`), 0o600))
		os.Args = []string{"server", "-config", bad}

		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"server", "-config", filepath.Join(dir, "absent.json")}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
