package config

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/incidentportal/internal/flagx"
)

// parseFlags overlays Config fields from command-line flags.
//
//	-a string   HTTP listen address (":3001")
//	-l string   gRPC health listen address (empty disables)
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret
//	-t int      token validity, hours
//	-o string   allowed CORS origins, comma-separated
//	-f string   local upload directory
//	-k string   storage backend: local | s3
//	-u string   S3 access key
//	-p string   S3 secret key
//	-b string   S3 bucket
//	-g string   S3 region
//	-e string   S3 endpoint
//	-x string   Redis address for rate limiting
//
// Only these flags are considered; os.Args is filtered first so that -c and
// -env-file do not trip the parser.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-l", "-d", "-s", "-t", "-o", "-f", "-k", "-u", "-p", "-b", "-g", "-e", "-x",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP listen address")
	fs.StringVar(&config.EndpointAddrGRPC, "l", config.EndpointAddrGRPC, "gRPC health listen address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "JWT secret key")

	validity := fs.Int("t", int(config.AccessTokenValidityDuration.Hours()), "token validity (in hours)")

	fs.StringVar(&config.CORSOrigin, "o", config.CORSOrigin, "allowed CORS origins")
	fs.StringVar(&config.UploadDir, "f", config.UploadDir, "upload directory")
	fs.StringVar(&config.StorageBackend, "k", config.StorageBackend, "storage backend (local|s3)")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 access key")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 endpoint")
	fs.StringVar(&config.RedisAddr, "x", config.RedisAddr, "Redis address")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	tokenFlagSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			tokenFlagSet = true
		}
	})
	if tokenFlagSet {
		config.AccessTokenValidityDuration = time.Duration(*validity) * time.Hour
	}
}
