// Package database handles database connections.
//
// It provides a wrapper around GORM to configure MySQL, PostgreSQL or SQLite
// connections based on the application's configuration. SQLite is primarily used
// for local runs and tests with in-memory databases.
//
// # Connect
//
// Connect opens the connection, applies pool settings and verifies it with a
// bounded ping. Migrate runs GORM auto-migration for the given models and is only
// invoked when database.auto_migrate is enabled.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
