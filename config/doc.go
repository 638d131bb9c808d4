// Package config provides configuration loading and validation for mayray.
//
// The package handles YAML and Java-style .properties files, environment
// variables and CLI flags with automatic merging and validation using
// go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (MAYRAY_ prefix)
//  4. CLI flags
//
// Without explicit files Load looks for ./config.yaml and then for
// config/server.properties. Files ending in .properties are decoded with
// magiconair/properties; other extensions use viper's codecs. A file that
// exists but cannot be read or parsed fails Load.
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Build the startup config; the password moves into a Secret
//	sc, err := cfg.ServerConfig()
//
// # Environment Variables
//
// All config keys map to environment variables with MAYRAY_ prefix:
//   - server.port → MAYRAY_SERVER_PORT
//   - server.tls → MAYRAY_SERVER_TLS
//   - keystore.password → MAYRAY_KEYSTORE_PASSWORD
//
// # Legacy Properties Files
//
// Flat keys from older server.properties files are translated:
//   - host → server.host
//   - port → server.port
//   - keystorePath → keystore.path
//   - keystorePassword → keystore.password
//
// A nested key set in the same file takes precedence over its flat form.
//
// # Validation
//
// Every failing rule is reported in a single joined error:
//   - Port must be 1-65535
//   - TLS must be on or off (yes/no and true/false are accepted)
//   - keystore.path is required when TLS is on
//   - Layout must be access or meta
//   - Log level must be debug, info, warn, or error
package config
