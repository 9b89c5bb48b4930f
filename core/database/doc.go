// Package database handles database connections and schema inspection.
//
// It wraps GORM to open MySQL or SQLite connections from the application's
// configuration. SQLite is used for local runs and tests; MySQL for shared
// deployments.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a table. The records feature uses it
// to write only the remote attributes that have a matching column.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "users")
package database
