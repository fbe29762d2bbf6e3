// Package database handles database connections and schema inspection.
//
// It wraps GORM connection setup for the supported drivers (MySQL for
// deployments, SQLite for local runs and tests), applying sane pool limits
// and verifying the connection with a ping before handing it out.
//
// # Schema Inspection
//
// GetTableColumns retrieves the column definitions of a table in a
// dialect-aware way. The gormstore column preflight uses it to verify that
// configured match and update fields actually exist as columns before a sync
// run touches any row.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", zap.Error(err))
//	}
//
//	columns, err := database.GetTableColumns(db, "products")
package database
