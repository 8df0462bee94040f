package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-w string   HTTP bind address for public share links
//	-o string   public base URL share links are built on
//	-m string   metadata backend: postgres or badger
//	-d string   PostgreSQL DSN
//	-k string   badger data directory (empty = in-memory)
//	-s string   JWT HMAC secret key
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l int      per-user storage limit, bytes
//	-t int      signed URL validity, minutes
//	-v string   log level
//
// Only the flags above are parsed; anything else in args is dropped by
// flagx.FilterArgs first.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{
		"-a", "-w", "-o", "-m", "-d", "-k", "-s",
		"-u", "-p", "-b", "-g", "-e", "-l", "-t", "-v",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run gRPC server")
	fs.StringVar(&config.EndpointAddrHTTP, "w", config.EndpointAddrHTTP, "address and port to run share HTTP server")
	fs.StringVar(&config.PublicBaseURL, "o", config.PublicBaseURL, "public base URL for share links")
	fs.StringVar(&config.MetadataBackend, "m", config.MetadataBackend, "metadata backend (postgres, badger)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.BadgerPath, "k", config.BadgerPath, "badger data directory")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.Int64Var(&config.StorageLimitBytes, "l", config.StorageLimitBytes, "storage limit per user (bytes)")
	signedURLTTL := fs.Int("t", int(config.SignedURLTTL.Minutes()), "signed URL validity (in minutes)")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.SignedURLTTL = time.Duration(*signedURLTTL) * time.Minute
		}
	})
}
