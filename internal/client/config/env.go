package config

import "github.com/spf13/viper"

// parseEnv reads GOPHDRIVE_ACCESS_TOKEN and GOPHDRIVE_SERVER_ENDPOINT_ADDR.
func parseEnv(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix("GOPHDRIVE")
	_ = v.BindEnv("access_token")
	_ = v.BindEnv("server_endpoint_addr")

	if v.IsSet("access_token") {
		cfg.AccessToken = v.GetString("access_token")
	}
	if v.IsSet("server_endpoint_addr") {
		cfg.ServerEndpointAddr = v.GetString("server_endpoint_addr")
	}
}
