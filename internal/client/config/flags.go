package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/pinsession/internal/flagx"
)

var knownFlags = []string{"-a", "-remote", "-d", "-probe-timeout", "-grace", "-redirect-delay", "-message-ttl", "-log-level"}

// parseFlags overlays cfg with the command-line flags it knows about; other
// arguments are ignored. Boolean flags take the -remote=false form.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the identity service")
	fs.BoolVar(&cfg.RemoteEnabled, "remote", cfg.RemoteEnabled, "use the identity service when reachable")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the device database")
	fs.DurationVar(&cfg.ProbeTimeout, "probe-timeout", cfg.ProbeTimeout, "identity service reachability timeout")
	fs.DurationVar(&cfg.InitGracePeriod, "grace", cfg.InitGracePeriod, "wait for the identity service to report a user")
	fs.DurationVar(&cfg.RedirectDelay, "redirect-delay", cfg.RedirectDelay, "delay before navigating after success")
	fs.DurationVar(&cfg.MessageTTL, "message-ttl", cfg.MessageTTL, "how long status messages stay visible")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	return fs.Parse(flagx.FilterArgs(args, knownFlags))
}
