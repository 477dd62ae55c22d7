package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/incidentportal/internal/flagx"
	"github.com/dmitrijs2005/incidentportal/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations use
// timex.Duration so both "15m"/"7d" strings and nanosecond integers work.
type JsonConfig struct {
	Environment                 string         `json:"environment"`
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	BasePath                    string         `json:"base_path"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	CORSOrigin                  string         `json:"cors_origin"`
	UploadDir                   string         `json:"upload_dir"`
	UploadURLPrefix             string         `json:"upload_url_prefix"`
	MaxUploadSize               int64          `json:"max_upload_size"`
	MaxBodySize                 int64          `json:"max_body_size"`
	StorageBackend              string         `json:"storage_backend"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	RedisAddr                   string         `json:"redis_addr"`
	RedisPassword               string         `json:"redis_password"`
	RedisDB                     int            `json:"redis_db"`
	RateLimitMax                int            `json:"rate_limit_max"`
	RateLimitWindow             timex.Duration `json:"rate_limit_window"`
}

// parseJson overlays values from the file named by -c/-config. Only fields
// present (non-zero) in the file replace what is already in config.
// An unreadable or malformed file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.Environment, c.Environment)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.BasePath, c.BasePath)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.CORSOrigin, c.CORSOrigin)
	setString(&config.UploadDir, c.UploadDir)
	setString(&config.UploadURLPrefix, c.UploadURLPrefix)
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)

	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RateLimitWindow.Duration != 0 {
		config.RateLimitWindow = c.RateLimitWindow.Duration
	}
	if c.MaxUploadSize != 0 {
		config.MaxUploadSize = c.MaxUploadSize
	}
	if c.MaxBodySize != 0 {
		config.MaxBodySize = c.MaxBodySize
	}
	if c.RedisDB != 0 {
		config.RedisDB = c.RedisDB
	}
	if c.RateLimitMax != 0 {
		config.RateLimitMax = c.RateLimitMax
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
