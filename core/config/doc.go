// Package config provides configuration management for record-sync.
//
// Settings are read with Viper from an optional config.yaml, a .env file
// (loaded with godotenv) and environment variables, the latter taking
// precedence. Defaults come from the `default` struct tags of each partial
// configuration.
//
// # Configuration Structure
//
// The Config struct is divided into subsections:
//   - Server: HTTP server settings (port, API key, body limit)
//   - Database: MySQL or SQLite connection details
//   - Storage: S3/MinIO credentials and bucket holding record documents
//   - Log: Logging level and format
//   - Sync: default keys, key type, operations and table overrides
//
// Environment variables use the SECTION_FIELD form, e.g. SYNC_LOCAL_KEY.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Sync.LocalKey)
package config
