// Package database provides the SQLite connection used to persist display
// definitions.
//
// Open configures WAL mode and a busy timeout, and Migrate applies the SQL
// files registered in MigrationsFS. Migrations are additive: new columns
// must be nullable or carry a default, and every .up.sql has a matching
// .down.sql where a rollback is possible.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
