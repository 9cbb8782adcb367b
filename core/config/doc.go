// Package config provides configuration management for the gas-market service.
//
// Values come from environment variables, optionally loaded from a .env file.
// Nested keys map to upper snake case variables, e.g. database.driver is read
// from DATABASE_DRIVER and upload.encodings from UPLOAD_ENCODINGS.
//
// # Configuration Structure
//
//   - Server: HTTP port, body limit and reference timezone
//   - Database: driver (mysql, postgres, sqlite) and connection details
//   - Storage: MinIO credentials and bucket for archived files
//   - Log: logging level and format
//   - Auth: token signing key, algorithm, lifetime and bootstrap admin
//   - Upload: default reconcile strategy, decoder encodings, size limit
//
// Defaults are declared with `default` struct tags on each section.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
