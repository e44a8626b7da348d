// Package pg implements a PostgreSQL-backed session store on the pgx driver.
//
// Records live in a sessions table keyed on the handle; see Schema for the
// DDL. User identifiers are stored in canonical string form. Expired rows are
// filtered by the session core on read; reap them periodically with
//
//	DELETE FROM sessions WHERE expires_at < now();
//
// Store operations join an ambient transaction when the context carries one
// (see integration/database/pg.WithTx), otherwise they use the pool.
//
//	pool, err := dbpg.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	store := pg.New(pool)
//	if err := store.EnsureSchema(ctx); err != nil {
//		log.Fatal(err)
//	}
//	manager, err := session.NewManager(session.DefaultConfig(), store)
package pg
