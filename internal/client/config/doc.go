// Package config loads runtime configuration for the postboard CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the postboard API
//	-s string   session directory
//	-t int      request timeout (seconds)
//
// # JSON schema
//
// Timeouts use timex.Duration, so values can be either strings like "30s"
// or integer nanoseconds. Absent keys keep their current value:
//
//	{
//	  "server_endpoint_addr": "http://127.0.0.1:3000",
//	  "session_dir": ".postboard",
//	  "request_timeout": "30s"
//	}
package config
