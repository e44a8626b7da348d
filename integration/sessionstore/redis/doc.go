// Package redis implements a Redis-backed session store.
//
// Session records are stored as JSON values under a configurable key prefix,
// with the Redis TTL mirroring the record expiry so stale sessions reap
// themselves. A set per user indexes their handles for revoke-all and
// public-data propagation.
//
//	client, err := dbredis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	store := redis.New(client)
//	manager, err := session.NewManager(session.DefaultConfig(), store)
package redis
