package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dmitrijs2005/incidentportal/internal/flagx"
	"github.com/dmitrijs2005/incidentportal/internal/timex"
)

// Environment variable names understood by parseEnv.
const (
	envEnvironment     = "APP_ENV"
	envPort            = "PORT"
	envGRPCHealthAddr  = "GRPC_HEALTH_ADDR"
	envBasePath        = "API_BASE_PATH"
	envDatabaseDSN     = "DATABASE_DSN"
	envJWTSecret       = "JWT_SECRET"
	envJWTExpiresIn    = "JWT_EXPIRES_IN"
	envCORSOrigin      = "CORS_ORIGIN"
	envUploadDir       = "UPLOAD_DIR"
	envUploadURLPrefix = "UPLOAD_URL_PREFIX"
	envMaxUploadSize   = "MAX_UPLOAD_SIZE"
	envMaxBodySize     = "MAX_BODY_SIZE"
	envStorageBackend  = "STORAGE_BACKEND"
	envS3AccessKey     = "S3_ACCESS_KEY"
	envS3SecretKey     = "S3_SECRET_KEY"
	envS3Bucket        = "S3_BUCKET"
	envS3Region        = "S3_REGION"
	envS3Endpoint      = "S3_ENDPOINT"
	envRedisAddr       = "REDIS_ADDR"
	envRedisPassword   = "REDIS_PASSWORD"
	envRedisDB         = "REDIS_DB"
	envRateLimitMax    = "RATE_LIMIT_MAX"
	envRateLimitWindow = "RATE_LIMIT_WINDOW"
)

var envNames = []string{
	envEnvironment, envPort, envGRPCHealthAddr, envBasePath, envDatabaseDSN,
	envJWTSecret, envJWTExpiresIn, envCORSOrigin, envUploadDir, envUploadURLPrefix,
	envMaxUploadSize, envMaxBodySize, envStorageBackend, envS3AccessKey, envS3SecretKey, envS3Bucket,
	envS3Region, envS3Endpoint, envRedisAddr, envRedisPassword, envRedisDB,
	envRateLimitMax, envRateLimitWindow,
}

// parseEnv loads a dotenv file (the -env-file flag, else ./.env when it
// exists) into the process environment and then overlays every variable
// that is set. Variables already present in the environment win over the
// dotenv file. Malformed values panic.
func parseEnv(config *Config) {
	loadDotEnv()

	v := viper.New()
	for _, name := range envNames {
		_ = v.BindEnv(strings.ToLower(name), name)
	}

	str := func(name string, dst *string) {
		if key := strings.ToLower(name); v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	str(envEnvironment, &config.Environment)
	str(envGRPCHealthAddr, &config.EndpointAddrGRPC)
	str(envBasePath, &config.BasePath)
	str(envDatabaseDSN, &config.DatabaseDSN)
	str(envJWTSecret, &config.SecretKey)
	str(envCORSOrigin, &config.CORSOrigin)
	str(envUploadDir, &config.UploadDir)
	str(envUploadURLPrefix, &config.UploadURLPrefix)
	str(envStorageBackend, &config.StorageBackend)
	str(envS3AccessKey, &config.S3RootUser)
	str(envS3SecretKey, &config.S3RootPassword)
	str(envS3Bucket, &config.S3Bucket)
	str(envS3Region, &config.S3Region)
	str(envS3Endpoint, &config.S3BaseEndpoint)
	str(envRedisAddr, &config.RedisAddr)
	str(envRedisPassword, &config.RedisPassword)

	if key := strings.ToLower(envPort); v.IsSet(key) {
		config.EndpointAddrHTTP = portToAddr(v.GetString(key))
	}
	if key := strings.ToLower(envJWTExpiresIn); v.IsSet(key) {
		d, err := timex.ParseDuration(v.GetString(key))
		if err != nil {
			panic(err)
		}
		config.AccessTokenValidityDuration = d
	}
	if key := strings.ToLower(envRateLimitWindow); v.IsSet(key) {
		d, err := timex.ParseDuration(v.GetString(key))
		if err != nil {
			panic(err)
		}
		config.RateLimitWindow = d
	}
	if key := strings.ToLower(envMaxUploadSize); v.IsSet(key) {
		config.MaxUploadSize = v.GetInt64(key)
	}
	if key := strings.ToLower(envMaxBodySize); v.IsSet(key) {
		config.MaxBodySize = v.GetInt64(key)
	}
	if key := strings.ToLower(envRedisDB); v.IsSet(key) {
		config.RedisDB = v.GetInt(key)
	}
	if key := strings.ToLower(envRateLimitMax); v.IsSet(key) {
		config.RateLimitMax = v.GetInt(key)
	}
}

func loadDotEnv() {
	path := flagx.EnvFileFlags()
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return
		}
		panic(err)
	}
}

// portToAddr turns a bare port ("3001") into a listen address (":3001").
func portToAddr(port string) string {
	port = strings.TrimSpace(port)
	if port == "" || strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}
