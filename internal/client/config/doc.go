// Package config loads runtime configuration for the PIN login client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file selected with -c or -config.
//  3. Environment variables prefixed with PINSESSION_.
//  4. Command-line flags.
//
// Supported flags
//
//	-a string               address:port of the identity service
//	-remote bool            use the identity service (-remote=false for device-only)
//	-d string               device database path
//	-probe-timeout duration reachability check timeout
//	-grace duration         wait for the identity service to report a user
//	-redirect-delay duration
//	-message-ttl duration
//	-log-level string
//
// # File schema
//
// Durations are strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "remote_enabled": true,
//	  "database_path": "pinsession.db",
//	  "probe_timeout": "3s",
//	  "message_ttl": "5s"
//	}
package config
