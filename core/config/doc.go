// Package config centralizes application configuration.
//
// Configuration is sourced from environment variables, optionally seeded from
// a .env file. Defaults are declared as struct tags on the partial Config
// structs (database, storage, log) and registered in Viper through
// reflection, so every key is overridable via its upper-cased, underscored
// environment name (e.g. DATABASE_HOST, STORAGE_BUCKET, LOG_LEVEL).
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    return err
//	}
//	db, err := database.Connect(cfg.Database)
package config
