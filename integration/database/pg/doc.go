// Package pg provides PostgreSQL connection pool management and health
// checking on top of the pgx driver.
//
// Connect creates a pgxpool with retry logic and verifies connectivity with a
// ping before returning. Configuration is populated from the environment:
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
// WithTx and TxFromContext propagate a pgx.Tx through a context, letting
// storage code join an ambient transaction when one is present and fall back
// to the pool otherwise.
package pg
