// Package database provides SQLite connectivity for Gray Logic Haptics.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Schema migrations read from any fs.FS (see package migrations)
//   - Connection lifecycle and health checks
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive-only: new columns must be nullable or have a
// default, and each .up.sql should ship with a .down.sql.
package database
