package config

import "github.com/caarlos0/env/v11"

const envPrefix = "PINSESSION_SERVER_"

func parseEnv(cfg *Config, environ map[string]string) error {
	opts := env.Options{Prefix: envPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	return env.ParseWithOptions(cfg, opts)
}
