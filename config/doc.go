// Package config provides configuration loading and validation for the gallery.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (GALLERY_ prefix)
//  4. CLI flags
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
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with GALLERY_ prefix:
//   - server.port → GALLERY_SERVER_PORT
//   - database.type → GALLERY_DATABASE_TYPE
//   - storage.s3.region → GALLERY_STORAGE_S3_REGION
//
// # Configuration Structure
//
// The Config struct contains:
//   - Env: development or production, selects the log format
//   - Server: port, base path, public URL, upload limit and timeouts
//   - Catalog: signed URL lifetime and list refresh concurrency
//   - Database: metadata backend, DSN, table names and read cache
//   - Storage: blob backend and its connection settings
//   - Auth: signing region, service and keys for locally served files
//   - CORS: cross-origin resource sharing settings
//   - Metrics: Prometheus endpoint toggle
//   - Log: logging level
//
// # Validation
//
// Struct tags cover single fields (port range, backend names, TTL bounds).
// Settings that depend on the chosen backend, such as a DSN for postgres or
// an endpoint for minio, are checked after the struct is validated.
package config
