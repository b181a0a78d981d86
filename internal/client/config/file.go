package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/pinsession/internal/flagx"
	"github.com/dmitrijs2005/pinsession/internal/timex"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk form. Pointer fields tell "absent" from zero;
// durations accept "3s" or integer nanoseconds.
type fileConfig struct {
	ServerEndpointAddr *string         `json:"server_endpoint_addr" yaml:"server_endpoint_addr"`
	RemoteEnabled      *bool           `json:"remote_enabled" yaml:"remote_enabled"`
	DatabasePath       *string         `json:"database_path" yaml:"database_path"`
	ProbeTimeout       *timex.Duration `json:"probe_timeout" yaml:"probe_timeout"`
	InitGracePeriod    *timex.Duration `json:"init_grace_period" yaml:"init_grace_period"`
	RedirectDelay      *timex.Duration `json:"redirect_delay" yaml:"redirect_delay"`
	MessageTTL         *timex.Duration `json:"message_ttl" yaml:"message_ttl"`
	LogLevel           *string         `json:"log_level" yaml:"log_level"`
}

// parseFile overlays cfg with the file given by -c or -config. JSON and
// YAML are chosen by extension.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	case ".json":
		err = json.Unmarshal(data, &fc)
	default:
		return fmt.Errorf("unsupported config file type %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *fileConfig) apply(cfg *Config) {
	if fc.ServerEndpointAddr != nil {
		cfg.ServerEndpointAddr = *fc.ServerEndpointAddr
	}
	if fc.RemoteEnabled != nil {
		cfg.RemoteEnabled = *fc.RemoteEnabled
	}
	if fc.DatabasePath != nil {
		cfg.DatabasePath = *fc.DatabasePath
	}
	if fc.ProbeTimeout != nil {
		cfg.ProbeTimeout = fc.ProbeTimeout.Duration
	}
	if fc.InitGracePeriod != nil {
		cfg.InitGracePeriod = fc.InitGracePeriod.Duration
	}
	if fc.RedirectDelay != nil {
		cfg.RedirectDelay = fc.RedirectDelay.Duration
	}
	if fc.MessageTTL != nil {
		cfg.MessageTTL = fc.MessageTTL.Duration
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
}
