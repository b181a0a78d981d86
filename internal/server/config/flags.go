package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/pinsession/internal/flagx"
)

var knownFlags = []string{"-a", "-d", "-s", "-t", "-r", "-m", "-l", "-log-level"}

// parseFlags overlays cfg with command-line flags.
//
// Supported flags:
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-m int      failed sign-in attempts before lockout
//	-l duration lockout duration (e.g., "5m")
//	-log-level  debug, info, warn or error
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.EndpointAddrGRPC, "a", cfg.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "secret key")

	accessMinutes := fs.Int("t", int(cfg.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshMinutes := fs.Int("r", int(cfg.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.IntVar(&cfg.MaxFailedAttempts, "m", cfg.MaxFailedAttempts, "failed sign-in attempts before lockout")
	fs.DurationVar(&cfg.LockoutDuration, "l", cfg.LockoutDuration, "lockout duration")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return err
	}

	// minute flags only override when given, sub-minute values from other
	// sources would otherwise be truncated
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			cfg.AccessTokenValidityDuration = time.Duration(*accessMinutes) * time.Minute
		case "r":
			cfg.RefreshTokenValidityDuration = time.Duration(*refreshMinutes) * time.Minute
		}
	})
	return nil
}
