// Package pg bootstraps the PostgreSQL layer: a pgx/v5 connection pool with
// retry on startup, goose schema migrations, a healthcheck closure, and error
// helpers shared by the storage implementations.
//
// Typical startup sequence:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
//
// The error helpers keep driver details out of storage code: callers match on
// IsNotFound and IsUniqueViolation instead of importing pgconn everywhere.
package pg
