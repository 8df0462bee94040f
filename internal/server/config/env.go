package config

import "github.com/spf13/viper"

// EnvPrefix namespaces every environment variable, e.g. GOPHDRIVE_S3_BUCKET.
const EnvPrefix = "GOPHDRIVE"

type envBinding struct {
	key   string
	apply func(v *viper.Viper, c *Config)
}

var envBindings = []envBinding{
	{"endpoint_addr_grpc", func(v *viper.Viper, c *Config) { c.EndpointAddrGRPC = v.GetString("endpoint_addr_grpc") }},
	{"endpoint_addr_http", func(v *viper.Viper, c *Config) { c.EndpointAddrHTTP = v.GetString("endpoint_addr_http") }},
	{"public_base_url", func(v *viper.Viper, c *Config) { c.PublicBaseURL = v.GetString("public_base_url") }},
	{"metadata_backend", func(v *viper.Viper, c *Config) { c.MetadataBackend = v.GetString("metadata_backend") }},
	{"database_dsn", func(v *viper.Viper, c *Config) { c.DatabaseDSN = v.GetString("database_dsn") }},
	{"badger_path", func(v *viper.Viper, c *Config) { c.BadgerPath = v.GetString("badger_path") }},
	{"secret_key", func(v *viper.Viper, c *Config) { c.SecretKey = v.GetString("secret_key") }},
	{"s3_root_user", func(v *viper.Viper, c *Config) { c.S3RootUser = v.GetString("s3_root_user") }},
	{"s3_root_password", func(v *viper.Viper, c *Config) { c.S3RootPassword = v.GetString("s3_root_password") }},
	{"s3_bucket", func(v *viper.Viper, c *Config) { c.S3Bucket = v.GetString("s3_bucket") }},
	{"s3_region", func(v *viper.Viper, c *Config) { c.S3Region = v.GetString("s3_region") }},
	{"s3_base_endpoint", func(v *viper.Viper, c *Config) { c.S3BaseEndpoint = v.GetString("s3_base_endpoint") }},
	{"storage_limit_bytes", func(v *viper.Viper, c *Config) { c.StorageLimitBytes = v.GetInt64("storage_limit_bytes") }},
	{"blob_timeout", func(v *viper.Viper, c *Config) { c.BlobTimeout = v.GetDuration("blob_timeout") }},
	{"metadata_timeout", func(v *viper.Viper, c *Config) { c.MetadataTimeout = v.GetDuration("metadata_timeout") }},
	{"signed_url_ttl", func(v *viper.Viper, c *Config) { c.SignedURLTTL = v.GetDuration("signed_url_ttl") }},
	{"log_level", func(v *viper.Viper, c *Config) { c.LogLevel = v.GetString("log_level") }},
	{"log_format", func(v *viper.Viper, c *Config) { c.LogFormat = v.GetString("log_format") }},
}

// parseEnv overlays every GOPHDRIVE_<KEY> variable that is set.
func parseEnv(config *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)

	for _, b := range envBindings {
		_ = v.BindEnv(b.key)
		if v.IsSet(b.key) {
			b.apply(v, config)
		}
	}
}
