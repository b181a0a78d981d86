package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds runtime settings for the PIN login client.
//
// Fields:
//   - ServerEndpointAddr: host:port of the identity service gRPC endpoint.
//   - RemoteEnabled: false skips the identity service and uses the device store only.
//   - DatabasePath: SQLite file of the device store (":memory:" for a throwaway one).
//   - ProbeTimeout: upper bound of the startup reachability check.
//   - InitGracePeriod: how long protected commands wait for the identity service to report a user.
//   - RedirectDelay: pause between a success message and navigation.
//   - MessageTTL: how long a status message stays on screen.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	ServerEndpointAddr string        `env:"SERVER_ADDRESS"`
	RemoteEnabled      bool          `env:"REMOTE_ENABLED"`
	DatabasePath       string        `env:"DATABASE_PATH"`
	ProbeTimeout       time.Duration `env:"PROBE_TIMEOUT"`
	InitGracePeriod    time.Duration `env:"INIT_GRACE_PERIOD"`
	RedirectDelay      time.Duration `env:"REDIRECT_DELAY"`
	MessageTTL         time.Duration `env:"MESSAGE_TTL"`
	LogLevel           string        `env:"LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RemoteEnabled = true
	c.DatabasePath = "pinsession.db"
	c.ProbeTimeout = 3 * time.Second
	c.InitGracePeriod = 1 * time.Second
	c.RedirectDelay = 1 * time.Second
	c.MessageTTL = 5 * time.Second
	c.LogLevel = "info"
}

// Load builds a Config from defaults, then the optional config file named
// by -c/-config, then PINSESSION_* environment variables, then flags. Later
// sources take precedence.
func Load(args []string, environ map[string]string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseFile(cfg, args); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := parseEnv(cfg, environ); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}

// LoadConfig is Load over the process arguments and environment. It panics
// on invalid configuration.
func LoadConfig() *Config {
	cfg, err := Load(os.Args[1:], nil)
	if err != nil {
		panic(err)
	}
	return cfg
}
