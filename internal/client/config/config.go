// Package config holds runtime settings for the GophDrive CLI.
package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/rpc"
)

// Config holds runtime settings for the GophDrive CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the DriveService gRPC endpoint.
//   - AccessToken: bearer token issued by the identity service.
//   - DownloadDir: where "get" and "fetch" write files.
//   - RequestTimeout: deadline applied to each call.
type Config struct {
	ServerEndpointAddr string
	AccessToken        string
	DownloadDir        string
	RequestTimeout     time.Duration
	MaxUploadBytes     int64
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.AccessToken = ""
	c.DownloadDir = "."
	c.RequestTimeout = 60 * time.Second
	c.MaxUploadBytes = rpc.MaxMessageBytes - 1<<20
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, os.Args[1:])
	parseEnv(cfg)
	parseFlags(cfg, os.Args[1:])
	return cfg
}
