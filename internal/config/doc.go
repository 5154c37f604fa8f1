// Package config resolves mcstructs server settings.
//
// Values come from four layers, highest precedence first:
//
//  1. command-line flags bound to the viper instance
//  2. MCSTRUCTS_* environment variables (dashes become underscores)
//  3. the file named by the config key (JSON, YAML or TOML by extension)
//  4. the defaults in this package
//
// # Configuration File Structure
//
//	{
//	  "addr": ":25580",
//	  "tcp-addr": ":25565",
//	  "max-packet-size": 2097151,
//	  "read-timeout": "30s",
//	  "write-timeout": "10s",
//	  "compression-threshold": 256,
//	  "metrics-namespace": "mcstructs",
//	  "log-level": "info",
//	  "log-format": "json"
//	}
package config
