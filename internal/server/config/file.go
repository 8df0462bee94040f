package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophdrive/internal/flagx"
	"github.com/dmitrijs2005/gophdrive/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config for decoding config files. Durations go through
// timex.Duration so both "90s" and integer nanoseconds are accepted. Fields
// left out of the file keep their previous value.
type FileConfig struct {
	EndpointAddrGRPC  string          `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	EndpointAddrHTTP  string          `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	PublicBaseURL     string          `json:"public_base_url" yaml:"public_base_url"`
	MetadataBackend   string          `json:"metadata_backend" yaml:"metadata_backend"`
	DatabaseDSN       string          `json:"database_dsn" yaml:"database_dsn"`
	BadgerPath        string          `json:"badger_path" yaml:"badger_path"`
	SecretKey         string          `json:"secret_key" yaml:"secret_key"`
	S3RootUser        string          `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword    string          `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket          string          `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region          string          `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint    string          `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	StorageLimitBytes int64           `json:"storage_limit_bytes" yaml:"storage_limit_bytes"`
	BlobTimeout       *timex.Duration `json:"blob_timeout" yaml:"blob_timeout"`
	MetadataTimeout   *timex.Duration `json:"metadata_timeout" yaml:"metadata_timeout"`
	SignedURLTTL      *timex.Duration `json:"signed_url_ttl" yaml:"signed_url_ttl"`
	LogLevel          string          `json:"log_level" yaml:"log_level"`
	LogFormat         string          `json:"log_format" yaml:"log_format"`
}

// parseFile overlays values from the file named by -c / -config, if any.
// The format follows the extension: .yaml and .yml are YAML, anything else
// is JSON. Unreadable or malformed files panic.
func parseFile(config *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		panic(fmt.Errorf("config file %s: %w", path, err))
	}

	fc.apply(config)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (fc *FileConfig) apply(config *Config) {
	setString(&config.EndpointAddrGRPC, fc.EndpointAddrGRPC)
	setString(&config.EndpointAddrHTTP, fc.EndpointAddrHTTP)
	setString(&config.PublicBaseURL, fc.PublicBaseURL)
	setString(&config.MetadataBackend, fc.MetadataBackend)
	setString(&config.DatabaseDSN, fc.DatabaseDSN)
	setString(&config.BadgerPath, fc.BadgerPath)
	setString(&config.SecretKey, fc.SecretKey)
	setString(&config.S3RootUser, fc.S3RootUser)
	setString(&config.S3RootPassword, fc.S3RootPassword)
	setString(&config.S3Bucket, fc.S3Bucket)
	setString(&config.S3Region, fc.S3Region)
	setString(&config.S3BaseEndpoint, fc.S3BaseEndpoint)
	setString(&config.LogLevel, fc.LogLevel)
	setString(&config.LogFormat, fc.LogFormat)

	if fc.StorageLimitBytes != 0 {
		config.StorageLimitBytes = fc.StorageLimitBytes
	}
	if fc.BlobTimeout != nil {
		config.BlobTimeout = fc.BlobTimeout.Duration
	}
	if fc.MetadataTimeout != nil {
		config.MetadataTimeout = fc.MetadataTimeout.Duration
	}
	if fc.SignedURLTTL != nil {
		config.SignedURLTTL = fc.SignedURLTTL.Duration
	}
}
